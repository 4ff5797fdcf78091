package search

import "container/heap"

// record is the bookkeeping for one discovered node.
type record[N any] struct {
	node   N
	id     int
	g      float64
	h      float64
	f      float64
	parent int
	seq    uint64
	index  int // position in the frontier heap, -1 when absent
	closed bool
}

// frontier is an indexed binary min-heap ordered by f, then by h (deeper
// nodes first), then by insertion sequence so equal entries pop in FIFO order.
type frontier[N any] struct {
	items []*record[N]
	seq   uint64
}

func (q *frontier[N]) Len() int { return len(q.items) }

func (q *frontier[N]) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (q *frontier[N]) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *frontier[N]) Push(x any) {
	r := x.(*record[N])
	r.index = len(q.items)
	q.items = append(q.items, r)
}

func (q *frontier[N]) Pop() any {
	old := q.items
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	q.items = old[:n-1]
	return r
}

// upsert inserts r or restores heap order after its priority dropped.
// Re-prioritized entries take a fresh sequence number.
func (q *frontier[N]) upsert(r *record[N]) {
	q.seq++
	r.seq = q.seq
	if r.index >= 0 {
		heap.Fix(q, r.index)
		return
	}
	heap.Push(q, r)
}

func (q *frontier[N]) pop() *record[N] {
	return heap.Pop(q).(*record[N])
}

// table maps nodes to record ids using hash buckets and graph equality.
type table[N any] struct {
	equal   func(a, b N) bool
	hash    func(n N) uint64
	buckets map[uint64][]int
	records []*record[N]
}

func newTable[N any](g Graph[N]) *table[N] {
	t := &table[N]{
		equal:   g.Equal,
		hash:    func(N) uint64 { return 0 },
		buckets: make(map[uint64][]int),
	}
	if h, ok := g.(Hasher[N]); ok {
		t.hash = h.Hash
	}
	return t
}

func (t *table[N]) lookup(n N) (int, uint64, bool) {
	h := t.hash(n)
	for _, id := range t.buckets[h] {
		if t.equal(t.records[id].node, n) {
			return id, h, true
		}
	}
	return -1, h, false
}

func (t *table[N]) add(h uint64, r *record[N]) int {
	id := len(t.records)
	r.id = id
	t.records = append(t.records, r)
	t.buckets[h] = append(t.buckets[h], id)
	return id
}
