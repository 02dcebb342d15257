package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/roach88/sqlgraph/internal/exec"
	"github.com/roach88/sqlgraph/internal/ir"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/topology"
)

// TableFormatter renders plans, rows and topologies as markdown tables.
type TableFormatter struct {
	useColor bool
}

// NewTableFormatter colours output only when w is a terminal and colour
// is not disabled.
func NewTableFormatter(w io.Writer, noColor bool) *TableFormatter {
	useColor := false
	if f, ok := w.(*os.File); ok && !noColor && !color.NoColor {
		if info, err := f.Stat(); err == nil {
			useColor = info.Mode()&os.ModeCharDevice != 0
		}
	}
	return &TableFormatter{useColor: useColor}
}

func (tf *TableFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !tf.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

func (tf *TableFormatter) render(headers []string, rows [][]string) string {
	var b strings.Builder

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}
	table := tablewriter.NewTable(&b,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return b.String()
}

// PlanTable renders one line per plan node.
func (tf *TableFormatter) PlanTable(tree *plan.Tree) string {
	headers := []string{"node", "parent", "address", "entity", "fan-out", "tables", "filters", "order", "range", "flags"}
	rows := make([][]string, 0, tree.Len())
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(plan.NodeID(i))

		parent := "-"
		if n.Parent != plan.NoParent {
			parent = fmt.Sprintf("%d", n.Parent)
		}
		entity := n.EntityType
		if n.Via != "" {
			entity = fmt.Sprintf("%s via %s", n.EntityType, n.Via)
		}

		filters := make([]string, len(n.Filters))
		for j, pred := range n.Filters {
			filters[j] = pred.String()
		}
		if n.HasIDFilter() {
			ids := make([]string, len(n.IDs))
			for j, id := range n.IDs {
				ids[j] = ir.String(id)
			}
			filters = append([]string{"id in (" + strings.Join(ids, ", ") + ")"}, filters...)
		}

		order := make([]string, len(n.OrderKeys))
		for j, k := range n.OrderKeys {
			name := k.Key
			if k.Func != "" {
				name = fmt.Sprintf("%s(%s)", k.Func, k.Key)
			}
			order[j] = fmt.Sprintf("%s %s", name, k.Direction)
		}

		rng := "-"
		if n.Range != nil {
			rng = fmt.Sprintf("[%d, %d)", n.Range.Offset, n.Range.High())
			if n.Range.Limit < 0 {
				rng = fmt.Sprintf("[%d, ∞)", n.Range.Offset)
			}
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", n.ID),
			parent,
			n.Address,
			entity,
			n.FanOut().String(),
			strings.Join(n.Tables(), ", "),
			orDash(strings.Join(filters, " and ")),
			orDash(strings.Join(order, ", ")),
			rng,
			orDash(tf.flags(n)),
		})
	}
	return tf.render(headers, rows)
}

func (tf *TableFormatter) flags(n *plan.Node) string {
	var flags []string
	if n.PushOrderToStore {
		flags = append(flags, tf.colorize("push-order", color.FgGreen))
	}
	if n.PushRangeToStore {
		flags = append(flags, tf.colorize("push-range", color.FgGreen))
	}
	if n.EagerLoad {
		flags = append(flags, tf.colorize("eager", color.FgYellow))
	}
	if n.OrderInMemory {
		flags = append(flags, tf.colorize("order-in-memory", color.FgYellow))
	}
	if n.RangeInMemory {
		flags = append(flags, tf.colorize("range-in-memory", color.FgYellow))
	}
	return strings.Join(flags, " ")
}

// RowsTable renders traversal output.
func (tf *TableFormatter) RowsTable(rows []exec.Row) string {
	if len(rows) == 0 {
		return "_No rows_\n"
	}
	headers := []string{"#", "entity", "table", "id", "value"}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			fmt.Sprintf("%d", i),
			orDash(r.Current.Entity),
			orDash(r.Current.Table),
			idString(r.Current.ID),
			formatRowValue(r),
		}
	}
	return tf.render(headers, out) + fmt.Sprintf("\n_%d rows_\n", len(rows))
}

// TopologyTable renders one line per entity.
func (tf *TableFormatter) TopologyTable(topo *topology.Topology) string {
	headers := []string{"entity", "id", "tables", "columns", "links"}
	var rows [][]string
	for _, name := range topo.EntityNames() {
		e, err := topo.Entity(name)
		if err != nil {
			continue
		}
		cols := make([]string, 0, len(e.Columns))
		for _, c := range e.ColumnNames() {
			cols = append(cols, fmt.Sprintf("%s %s", c, e.Columns[c]))
		}
		var links []string
		for _, l := range e.Links {
			links = append(links, fmt.Sprintf("%s -> %s.%s", l.Name, l.Target, l.Column))
		}
		sort.Strings(links)
		rows = append(rows, []string{
			tf.colorize(name, color.FgCyan),
			string(e.IDKind),
			strings.Join(e.Tables, ", "),
			orDash(strings.Join(cols, ", ")),
			orDash(strings.Join(links, ", ")),
		})
	}
	return tf.render(headers, rows)
}

func idString(id ir.IRValue) string {
	if id == nil {
		return "-"
	}
	return ir.String(id)
}

// formatRowValue renders a row's captured value, or its properties when
// nothing was captured.
func formatRowValue(r exec.Row) string {
	switch v := r.Value.(type) {
	case nil:
		if r.Current.Props == nil {
			return "-"
		}
		parts := make([]string, 0, len(r.Current.Props))
		for _, k := range r.Current.Props.SortedKeys() {
			parts = append(parts, fmt.Sprintf("%s=%s", k, ir.String(r.Current.Props[k])))
		}
		return strings.Join(parts, " ")
	case []any:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = formatValue(elem)
		}
		return strings.Join(parts, " > ")
	case *exec.Tree:
		return formatTree(v.Roots)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case exec.Element:
		return val.Key()
	case ir.IRValue:
		return ir.String(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatTree(nodes []*exec.TreeNode) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = formatValue(n.Value)
		if len(n.Children) > 0 {
			parts[i] += "{" + formatTree(n.Children) + "}"
		}
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
