package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Search runs A* from start until a node satisfying isGoal is popped.
//
// The goal test is lazy: it runs on the node about to be expanded. A node's
// recorded cost only ever decreases, and a node is pushed again only when
// its cost strictly improves, so cyclic graphs terminate. The timeout and
// ctx are checked once per dequeue. On failure the returned Result carries
// statistics but no path.
func Search[N any](
	ctx context.Context,
	g Graph[N],
	start N,
	isGoal GoalFunc[N],
	h HeuristicFunc[N],
	opts ...Option,
) (Result[N], error) {
	o := Options{Clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if h == nil {
		h = Zero[N]
	}

	began := o.Clock()
	var stats Stats
	done := func() Stats {
		stats.Elapsed = o.Clock().Sub(began)
		return stats
	}

	nodes := newTable(g)
	open := &frontier[N]{}

	h0, err := estimate(h, start)
	if err != nil {
		return Result[N]{Stats: done()}, err
	}
	_, hash, _ := nodes.lookup(start)
	root := &record[N]{node: start, g: 0, h: h0, f: h0, parent: -1, index: -1}
	nodes.add(hash, root)
	open.upsert(root)

	for open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return Result[N]{Stats: done()}, fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			return Result[N]{Stats: done()}, fmt.Errorf("search canceled: %w", err)
		}
		if o.Timeout > 0 && o.Clock().Sub(began) >= o.Timeout {
			return Result[N]{Stats: done()}, fmt.Errorf("%w after %s", ErrTimeout, o.Timeout)
		}

		cur := open.pop()
		if isGoal(cur.node) {
			return Result[N]{Path: nodes.path(cur), Cost: cur.g, Stats: done()}, nil
		}
		cur.closed = true
		stats.Expanded++

		for _, e := range g.Expand(cur.node) {
			if e.Cost < 0 {
				return Result[N]{Stats: done()}, fmt.Errorf("%w: edge %q costs %v", ErrNegativeCost, e.Label, e.Cost)
			}
			stats.Generated++
			tentative := cur.g + e.Cost

			id, hash, seen := nodes.lookup(e.To)
			if !seen {
				hv, err := estimate(h, e.To)
				if err != nil {
					return Result[N]{Stats: done()}, err
				}
				r := &record[N]{node: e.To, g: tentative, h: hv, f: tentative + hv, parent: cur.id, index: -1}
				nodes.add(hash, r)
				open.upsert(r)
				continue
			}

			r := nodes.records[id]
			if tentative >= r.g {
				continue
			}
			r.g = tentative
			r.f = tentative + r.h
			r.parent = cur.id
			if r.closed {
				r.closed = false
				stats.Reopened++
			}
			open.upsert(r)
		}
	}

	return Result[N]{Stats: done()}, ErrExhausted
}

func estimate[N any](h HeuristicFunc[N], n N) (float64, error) {
	v := h(n)
	if v < 0 {
		return 0, fmt.Errorf("%w: heuristic returned %v", ErrNegativeCost, v)
	}
	return v, nil
}

func (t *table[N]) path(goal *record[N]) []N {
	var out []N
	for r := goal; ; r = t.records[r.parent] {
		out = append(out, r.node)
		if r.parent < 0 {
			break
		}
	}
	slices.Reverse(out)
	return out
}
