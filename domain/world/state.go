package world

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Position is the location of an object inside a stack.
// Height 0 is the object resting on the floor.
type Position struct {
	Column int
	Height int
}

// State is an immutable snapshot of the world.
//
// Successor states share every unchanged stack and the object map with
// their parent; only the column an action touches is copied. States must
// therefore never be mutated once constructed, and callers must treat the
// slices returned by Stack as read-only.
type State struct {
	stacks  [][]string
	arm     int
	holding string
	objects Objects

	locOnce sync.Once
	loc     map[string]Position
}

// NewState validates and builds a state. The stacks are copied; the object
// map is shared with every state derived from the result.
func NewState(stacks [][]string, arm int, holding string, objects Objects) (*State, error) {
	if len(stacks) == 0 {
		return nil, fmt.Errorf("%w: at least one column is required", ErrInvalidState)
	}
	if arm < 0 || arm >= len(stacks) {
		return nil, fmt.Errorf("%w: arm %d outside columns 0..%d", ErrInvalidState, arm, len(stacks)-1)
	}
	if objects == nil {
		objects = Objects{}
	}
	if _, ok := objects[Floor]; ok {
		return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidState, Floor)
	}
	for id, obj := range objects {
		if err := obj.Validate(); err != nil {
			return nil, fmt.Errorf("object %q: %w", id, err)
		}
	}

	seen := make(map[string]bool, len(objects))
	place := func(id string) error {
		if _, ok := objects[id]; !ok {
			return fmt.Errorf("%w: undeclared object %q", ErrInvalidState, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: object %q placed twice", ErrInvalidState, id)
		}
		seen[id] = true
		return nil
	}

	copied := make([][]string, len(stacks))
	for i, stack := range stacks {
		for _, id := range stack {
			if err := place(id); err != nil {
				return nil, err
			}
		}
		copied[i] = slices.Clone(stack)
	}
	if holding != "" {
		if err := place(holding); err != nil {
			return nil, err
		}
	}
	for id := range objects {
		if !seen[id] {
			return nil, fmt.Errorf("%w: object %q is neither held nor stacked", ErrInvalidState, id)
		}
	}

	return &State{stacks: copied, arm: arm, holding: holding, objects: objects}, nil
}

// MustState is like NewState but panics on error. Intended for tests and
// fixed fixtures.
func MustState(stacks [][]string, arm int, holding string, objects Objects) *State {
	s, err := NewState(stacks, arm, holding, objects)
	if err != nil {
		panic(err)
	}
	return s
}

// Columns returns the number of stacks.
func (s *State) Columns() int {
	return len(s.stacks)
}

// Arm returns the column the arm is above.
func (s *State) Arm() int {
	return s.arm
}

// Holding returns the held object identifier, or "" when the arm is empty.
func (s *State) Holding() string {
	return s.holding
}

// Stack returns the objects of a column, bottom first. The slice is shared
// and must not be modified.
func (s *State) Stack(column int) []string {
	return s.stacks[column]
}

// Top returns the topmost object of a column.
func (s *State) Top(column int) (string, bool) {
	stack := s.stacks[column]
	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1], true
}

// Object returns the attributes of an object.
func (s *State) Object(id string) (Object, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// Objects returns the shared attribute map. It must not be modified.
func (s *State) Objects() Objects {
	return s.objects
}

// IDs returns all object identifiers in sorted order.
func (s *State) IDs() []string {
	ids := make([]string, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Locate returns the stack position of an object. It returns false for the
// held object and for unknown identifiers.
func (s *State) Locate(id string) (Position, bool) {
	s.locOnce.Do(func() {
		s.loc = make(map[string]Position, len(s.objects))
		for col, stack := range s.stacks {
			for h, obj := range stack {
				s.loc[obj] = Position{Column: col, Height: h}
			}
		}
	})
	pos, ok := s.loc[id]
	return pos, ok
}

// Above returns how many objects are stacked on top of id.
func (s *State) Above(id string) int {
	pos, ok := s.Locate(id)
	if !ok {
		return 0
	}
	return len(s.stacks[pos.Column]) - pos.Height - 1
}

// Move returns the state with the arm shifted by delta columns.
func (s *State) Move(delta int) (*State, error) {
	target := s.arm + delta
	if target < 0 || target >= len(s.stacks) {
		return nil, fmt.Errorf("%w: arm cannot move from column %d to %d", ErrIllegalMove, s.arm, target)
	}
	return &State{stacks: s.stacks, arm: target, holding: s.holding, objects: s.objects}, nil
}

// PickUp returns the state with the top object of the arm's column held.
func (s *State) PickUp() (*State, error) {
	if s.holding != "" {
		return nil, fmt.Errorf("%w: arm already holds %q", ErrIllegalMove, s.holding)
	}
	stack := s.stacks[s.arm]
	if len(stack) == 0 {
		return nil, fmt.Errorf("%w: column %d is empty", ErrIllegalMove, s.arm)
	}
	top := stack[len(stack)-1]
	next := s.withColumn(s.arm, stack[:len(stack)-1:len(stack)-1])
	next.holding = top
	return next, nil
}

// PutDown returns the state with the held object pushed onto the arm's
// column. Physical compatibility is not checked here.
func (s *State) PutDown() (*State, error) {
	if s.holding == "" {
		return nil, fmt.Errorf("%w: arm holds nothing", ErrIllegalMove)
	}
	stack := s.stacks[s.arm]
	grown := make([]string, len(stack)+1)
	copy(grown, stack)
	grown[len(stack)] = s.holding
	next := s.withColumn(s.arm, grown)
	next.holding = ""
	return next, nil
}

func (s *State) withColumn(col int, stack []string) *State {
	stacks := make([][]string, len(s.stacks))
	copy(stacks, s.stacks)
	stacks[col] = stack
	return &State{stacks: stacks, arm: s.arm, holding: s.holding, objects: s.objects}
}

// Equal reports structural equality of stacks, arm and held object.
func (s *State) Equal(o *State) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.arm != o.arm || s.holding != o.holding || len(s.stacks) != len(o.stacks) {
		return false
	}
	for i := range s.stacks {
		if !slices.Equal(s.stacks[i], o.stacks[i]) {
			return false
		}
	}
	return true
}

// Hash returns a 64-bit digest consistent with Equal.
func (s *State) Hash() uint64 {
	d := xxhash.New()
	s.encode(d)
	return d.Sum64()
}

// Key returns a canonical text encoding consistent with Equal.
func (s *State) Key() string {
	var b strings.Builder
	s.encode(&b)
	return b.String()
}

type stringWriter interface {
	WriteString(string) (int, error)
}

func (s *State) encode(w stringWriter) {
	_, _ = w.WriteString(strconv.Itoa(s.arm))
	_, _ = w.WriteString("|")
	_, _ = w.WriteString(s.holding)
	for _, stack := range s.stacks {
		_, _ = w.WriteString("|")
		for i, id := range stack {
			if i > 0 {
				_, _ = w.WriteString(",")
			}
			_, _ = w.WriteString(id)
		}
	}
}

// String renders the state on a single line, e.g. "[a b] [] [c] arm=1 holding=-".
func (s *State) String() string {
	var b strings.Builder
	for i, stack := range s.stacks {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('[')
		b.WriteString(strings.Join(stack, " "))
		b.WriteByte(']')
	}
	held := s.holding
	if held == "" {
		held = "-"
	}
	fmt.Fprintf(&b, " arm=%d holding=%s", s.arm, held)
	return b.String()
}
