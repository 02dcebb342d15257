package topology

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"

	"github.com/roach88/sqlgraph/internal/ir"
)

// Load reads every .cue file in dir as one CUE instance and compiles the
// topology it declares.
func Load(dir string) (*Topology, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("topology directory not accessible: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil || len(matches) == 0 {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	return Compile(ctx.BuildInstance(inst))
}

// Parse compiles a topology from CUE source text.
func Parse(src string) (*Topology, error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src, cue.Filename("topology.cue")))
}

// Compile extracts the topology from a built CUE value with an `entity`
// struct at its root.
func Compile(v cue.Value) (*Topology, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoEntities, Message: "no entities declared", Pos: v.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entities []*Entity
	for iter.Next() {
		e, err := compileEntity(iter.Selector().String(), iter.Value())
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	if len(entities) == 0 {
		return nil, &LoadError{Code: ErrCodeNoEntities, Message: "no entities declared", Pos: entitiesVal.Pos()}
	}

	return New(entities...)
}

func compileEntity(name string, v cue.Value) (*Entity, error) {
	e := &Entity{
		Name:    name,
		IDKind:  ir.KindInt,
		Columns: make(map[string]ir.Kind),
		Links:   make(map[string]Link),
	}

	if idVal := v.LookupPath(cue.ParsePath("id")); idVal.Exists() {
		kind, err := extractKind(idVal)
		if err != nil {
			return nil, err
		}
		e.IDKind = kind
	}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoTables, Message: fmt.Sprintf("entity %q: tables is required", name), Pos: v.Pos()}
	}
	list, err := tablesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for list.Next() {
		table, err := list.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		e.Tables = append(e.Tables, table)
	}

	if colsVal := v.LookupPath(cue.ParsePath("columns")); colsVal.Exists() {
		fields, err := colsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for fields.Next() {
			kind, err := extractKind(fields.Value())
			if err != nil {
				return nil, err
			}
			e.Columns[fields.Selector().String()] = kind
		}
	}

	if linksVal := v.LookupPath(cue.ParsePath("links")); linksVal.Exists() {
		fields, err := linksVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for fields.Next() {
			link, err := compileLink(fields.Selector().String(), fields.Value())
			if err != nil {
				return nil, err
			}
			e.Links[link.Name] = link
		}
	}

	return e, nil
}

func compileLink(name string, v cue.Value) (Link, error) {
	link := Link{Name: name}
	for field, dst := range map[string]*string{"entity": &link.Target, "column": &link.Column} {
		fv := v.LookupPath(cue.ParsePath(field))
		if !fv.Exists() {
			return Link{}, &LoadError{Code: ErrCodeInvalidLink, Message: fmt.Sprintf("link %q: %s is required", name, field), Pos: v.Pos()}
		}
		s, err := fv.String()
		if err != nil {
			return Link{}, formatCUEError(err)
		}
		*dst = s
	}
	return link, nil
}

// extractKind maps a CUE type to a column kind. Floats are forbidden.
func extractKind(v cue.Value) (ir.Kind, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.KindString, nil
	case cue.IntKind:
		return ir.KindInt, nil
	case cue.BoolKind:
		return ir.KindBool, nil
	case cue.FloatKind, cue.NumberKind:
		return "", &LoadError{
			Code:    ErrCodeInvalidType,
			Message: "float types are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &LoadError{
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("unsupported column kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Code: ErrCodeLoadFailed, Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: first.Error()}
}
