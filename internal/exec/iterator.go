package exec

import "context"

// Iterator yields rows one at a time. Next returns a nil row once the
// iterator is exhausted.
type Iterator interface {
	Next(ctx context.Context) (*Row, error)
}

// sliceIter yields a fixed list of rows.
type sliceIter struct {
	rows []*Row
	pos  int
}

func (it *sliceIter) Next(context.Context) (*Row, error) {
	if it.pos >= len(it.rows) {
		return nil, nil
	}
	r := it.rows[it.pos]
	it.pos++
	return r, nil
}

// Drain reads every remaining row.
func Drain(ctx context.Context, it Iterator) ([]*Row, error) {
	var rows []*Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return rows, nil
		}
		rows = append(rows, r)
	}
}

// flatMapIter expands each input row into zero or more output rows.
type flatMapIter struct {
	in  Iterator
	fn  func(ctx context.Context, r *Row) ([]*Row, error)
	buf []*Row
}

func (it *flatMapIter) Next(ctx context.Context) (*Row, error) {
	for len(it.buf) == 0 {
		r, err := it.in.Next(ctx)
		if err != nil || r == nil {
			return nil, err
		}
		it.buf, err = it.fn(ctx, r)
		if err != nil {
			return nil, err
		}
	}
	r := it.buf[0]
	it.buf = it.buf[1:]
	return r, nil
}

// materializeIter drains its input on first use and yields the rows fn
// returns for the whole input.
type materializeIter struct {
	in  Iterator
	fn  func(rows []*Row) ([]*Row, error)
	out *sliceIter
}

func (it *materializeIter) Next(ctx context.Context) (*Row, error) {
	if it.out == nil {
		rows, err := Drain(ctx, it.in)
		if err != nil {
			return nil, err
		}
		rows, err = it.fn(rows)
		if err != nil {
			return nil, err
		}
		it.out = &sliceIter{rows: rows}
	}
	return it.out.Next(ctx)
}
