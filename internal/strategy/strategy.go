package strategy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/sqlgraph/internal/diag"
	"github.com/roach88/sqlgraph/internal/plan"
	"github.com/roach88/sqlgraph/internal/traversal"
)

// Transaction is the write side of the store. Buffered writes are flushed
// before a traversal is planned so reads observe them.
type Transaction interface {
	InBatchMode() bool
	Flush(ctx context.Context) error
}

// Sink receives diagnostic events and supplies the clock they are timed by.
type Sink interface {
	AddTiming(name string, start time.Time, data map[string]any)
	Now() time.Time
}

// Result describes what Apply did.
//
// A zero Result means the pipeline was not a candidate (its first step is
// not a root scan, or it was already compiled).
type Result struct {
	Skipped bool
	Reason  string
	Tree    *plan.Tree
	TraceID string
}

// Compiled reports whether Apply substituted compiled operations.
func (r *Result) Compiled() bool {
	return r.Tree != nil
}

// Strategy compiles raw traversals against a resolver.
type Strategy struct {
	resolver plan.Resolver
	tx       Transaction
	sink     Sink
	logger   *slog.Logger
	traceGen TraceGenerator
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithTransaction flushes tx before planning when it is buffering writes.
func WithTransaction(tx Transaction) Option {
	return func(s *Strategy) {
		s.tx = tx
	}
}

// WithSink reports compile outcomes to sink.
func WithSink(sink Sink) Option {
	return func(s *Strategy) {
		s.sink = sink
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Strategy) {
		s.logger = l
	}
}

// WithTraceGenerator sets the trace id source. Default: UUIDv7Generator.
func WithTraceGenerator(g TraceGenerator) Option {
	return func(s *Strategy) {
		s.traceGen = g
	}
}

// New creates a Strategy.
func New(resolver plan.Resolver, opts ...Option) *Strategy {
	s := &Strategy{
		resolver: resolver,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		traceGen: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply compiles p in place.
//
// The root window and the leading window of every branch arm that follows
// a linked scan are replaced with plan.Compiled operations sharing one
// tree. Pipelines that cannot be compiled are reported as skipped and left
// untouched, as is p whenever an error is returned.
func (s *Strategy) Apply(ctx context.Context, p *traversal.Pipeline) (*Result, error) {
	if p.Len() == 0 {
		return &Result{}, nil
	}
	root, ok := p.At(0).(traversal.Scan)
	if !ok || root.Via != "" {
		return &Result{}, nil
	}

	if s.tx != nil && s.tx.InBatchMode() {
		if err := s.tx.Flush(ctx); err != nil {
			return nil, fmt.Errorf("flush before compile: %w", err)
		}
	}

	traceID := s.traceGen.Generate()
	start := s.now()

	if err := plan.CheckIDs(root.IDs, 0); err != nil {
		s.failed(traceID, start, p, err)
		return nil, err
	}

	if reason := gate(p); reason != "" {
		s.emit(diag.CompileSkipped, start, map[string]any{
			"trace_id":  traceID,
			"reason":    reason,
			"traversal": p.String(),
		})
		s.logger.Debug("traversal not compiled",
			"trace_id", traceID,
			"reason", reason,
			"traversal", p.String())
		return &Result{Skipped: true, Reason: reason, TraceID: traceID}, nil
	}

	c, err := plan.Compile(p, s.resolver)
	if err != nil {
		s.failed(traceID, start, p, err)
		return nil, err
	}

	for i := len(c.Sites) - 1; i >= 0; i-- {
		site := c.Sites[i]
		site.Pipeline.Splice(site.Start, site.Consumed, plan.Compiled{Tree: c.Tree, Node: site.Node})
	}

	s.emit(diag.CompileCompleted, start, map[string]any{
		"trace_id": traceID,
		"nodes":    c.Tree.Len(),
		"sites":    len(c.Sites),
	})
	s.logger.Info("traversal compiled",
		"trace_id", traceID,
		"nodes", c.Tree.Len(),
		"traversal", p.String())

	return &Result{Tree: c.Tree, TraceID: traceID}, nil
}

func (s *Strategy) failed(traceID string, start time.Time, p *traversal.Pipeline, err error) {
	s.emit(diag.CompileFailed, start, map[string]any{
		"trace_id":  traceID,
		"error":     err.Error(),
		"traversal": p.String(),
	})
	s.logger.Debug("traversal compile failed", "trace_id", traceID, "error", err)
}

func (s *Strategy) emit(name string, start time.Time, data map[string]any) {
	if s.sink == nil {
		return
	}
	s.sink.AddTiming(name, start, data)
}

func (s *Strategy) now() time.Time {
	if s.sink == nil {
		return time.Now()
	}
	return s.sink.Now()
}
