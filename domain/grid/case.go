package grid

// Case is one regression case for the search engine.
type Case struct {
	Name     string
	Grid     *Grid
	Start    Point
	Goal     Point
	WantCost float64 // expected optimal cost; negative means unreachable
	WantPath []Point // optional exact path under the admissible heuristic
}

// Unreachable is the WantCost of a case whose goal cannot be reached.
const Unreachable = -1

// Corpus returns the built-in regression cases. size scales the open and
// walled grids and is clamped to at least 5.
func Corpus(size int) []Case {
	size = max(size, 5)
	n := size - 1

	walled := New(size, size, false)
	for y := 0; y < size-1; y++ {
		walled.Block(Point{size / 2, y})
	}

	maze, ms, mg, _ := Parse([]string{
		"S..#......",
		".#.#.####.",
		".#...#....",
		".####.#.##",
		"......#..G",
	}, false)

	boxed := New(size, size, false).Block(
		Point{n - 1, n}, Point{n - 1, n - 1}, Point{n, n - 1},
	)

	return []Case{
		{
			Name: "open-5x5-diagonal", Grid: New(5, 5, true),
			Start: Point{0, 0}, Goal: Point{4, 4}, WantCost: 4,
			WantPath: []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}},
		},
		{
			Name: "open-4-connected", Grid: New(size, size, false),
			Start: Point{0, 0}, Goal: Point{n, n}, WantCost: float64(2 * n),
		},
		{
			Name: "open-diagonal", Grid: New(size, size, true),
			Start: Point{0, 0}, Goal: Point{n, n}, WantCost: float64(n),
		},
		{
			// The wall leaves only the bottom row open, so the route
			// detours down to it and back up.
			Name: "walled", Grid: walled,
			Start: Point{0, 0}, Goal: Point{n, 0}, WantCost: float64(n + 2*n),
		},
		{
			Name: "maze", Grid: maze,
			Start: ms, Goal: mg, WantCost: 21,
		},
		{
			Name: "boxed-in", Grid: boxed,
			Start: Point{0, 0}, Goal: Point{n, n}, WantCost: Unreachable,
		},
	}
}
