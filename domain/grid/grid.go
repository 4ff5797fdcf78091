// Package grid provides a synthetic 2-D grid graph used to validate the
// search engine independently of the blocks world.
package grid

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/felixgeelhaar/shrdlu/domain/search"
)

// ErrInvalidMap indicates a malformed textual grid.
var ErrInvalidMap = errors.New("invalid grid map")

// Point is a grid coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String returns "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Grid is a rectangular grid with blocked cells.
type Grid struct {
	Width    int
	Height   int
	Diagonal bool    // allow 8-directional moves
	DiagCost float64 // cost of a diagonal step, 1 when zero
	walls    map[Point]bool
}

// New returns an open grid.
func New(width, height int, diagonal bool) *Grid {
	return &Grid{Width: width, Height: height, Diagonal: diagonal, walls: map[Point]bool{}}
}

// Block marks cells as impassable.
func (g *Grid) Block(points ...Point) *Grid {
	for _, p := range points {
		g.walls[p] = true
	}
	return g
}

// Blocked reports whether p is a wall or outside the grid.
func (g *Grid) Blocked(p Point) bool {
	return p.X < 0 || p.Y < 0 || p.X >= g.Width || p.Y >= g.Height || g.walls[p]
}

// Parse reads a map where '#' is a wall and every other rune is open.
// 'S' and 'G' mark the start and goal and are returned when present.
func Parse(lines []string, diagonal bool) (*Grid, Point, Point, error) {
	var start, goal Point
	if len(lines) == 0 {
		return nil, start, goal, fmt.Errorf("%w: empty map", ErrInvalidMap)
	}
	width := len(lines[0])
	g := New(width, len(lines), diagonal)
	for y, line := range lines {
		if len(line) != width {
			return nil, start, goal, fmt.Errorf("%w: row %d has width %d, want %d", ErrInvalidMap, y, len(line), width)
		}
		for x, r := range line {
			switch r {
			case '#':
				g.walls[Point{x, y}] = true
			case 'S':
				start = Point{x, y}
			case 'G':
				goal = Point{x, y}
			}
		}
	}
	return g, start, goal, nil
}

var (
	straight = []Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonal = []Point{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// Expand returns the open neighbours of p.
func (g *Grid) Expand(p Point) []search.Edge[Point] {
	edges := make([]search.Edge[Point], 0, 8)
	for _, d := range straight {
		n := Point{p.X + d.X, p.Y + d.Y}
		if !g.Blocked(n) {
			edges = append(edges, search.Edge[Point]{To: n, Cost: 1})
		}
	}
	if g.Diagonal {
		cost := g.diagCost()
		for _, d := range diagonal {
			n := Point{p.X + d.X, p.Y + d.Y}
			if !g.Blocked(n) {
				edges = append(edges, search.Edge[Point]{To: n, Cost: cost})
			}
		}
	}
	return edges
}

// Equal compares coordinates.
func (g *Grid) Equal(a, b Point) bool {
	return a == b
}

// Hash packs the coordinate.
func (g *Grid) Hash(p Point) uint64 {
	return uint64(uint32(p.X))<<32 | uint64(uint32(p.Y))
}

func (g *Grid) diagCost() float64 {
	if g.DiagCost <= 0 {
		return 1
	}
	return g.DiagCost
}

// String draws the grid with '#' for walls.
func (g *Grid) String() string {
	var b strings.Builder
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.walls[Point{x, y}] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Heuristic builds an estimator towards a goal for a given grid.
type Heuristic func(g *Grid, goal Point) search.HeuristicFunc[Point]

// Manhattan is admissible on 4-connected grids only.
func Manhattan(_ *Grid, goal Point) search.HeuristicFunc[Point] {
	return func(p Point) float64 {
		return float64(abs(p.X-goal.X) + abs(p.Y-goal.Y))
	}
}

// Chebyshev is admissible on 8-connected grids with unit diagonal cost.
func Chebyshev(_ *Grid, goal Point) search.HeuristicFunc[Point] {
	return func(p Point) float64 {
		return float64(max(abs(p.X-goal.X), abs(p.Y-goal.Y)))
	}
}

// Octile is exact on open 8-connected grids for any diagonal cost.
func Octile(g *Grid, goal Point) search.HeuristicFunc[Point] {
	diag := g.diagCost()
	return func(p Point) float64 {
		dx, dy := abs(p.X-goal.X), abs(p.Y-goal.Y)
		lo, hi := float64(min(dx, dy)), float64(max(dx, dy))
		return hi - lo + lo*math.Min(diag, 2)
	}
}

// Zero disables guidance.
func Zero(_ *Grid, _ Point) search.HeuristicFunc[Point] {
	return search.Zero[Point]
}

// Admissible returns the tightest admissible heuristic for the grid.
func Admissible(g *Grid, goal Point) search.HeuristicFunc[Point] {
	if g.Diagonal {
		return Octile(g, goal)
	}
	return Manhattan(g, goal)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
