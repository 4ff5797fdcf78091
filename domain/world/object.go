// Package world provides the blocks-world state model: columns of stacked
// objects, a robot arm and the physical attributes of every object.
package world

import "fmt"

// Floor is the sentinel identifier for the ground every stack rests on.
const Floor = "floor"

// Form is the shape of an object.
type Form string

// Known forms.
const (
	FormBrick   Form = "brick"
	FormPlank   Form = "plank"
	FormBall    Form = "ball"
	FormPyramid Form = "pyramid"
	FormBox     Form = "box"
	FormTable   Form = "table"
)

// IsValid returns true if the form is a recognized form.
func (f Form) IsValid() bool {
	switch f {
	case FormBrick, FormPlank, FormBall, FormPyramid, FormBox, FormTable:
		return true
	default:
		return false
	}
}

// String returns the string representation of the form.
func (f Form) String() string {
	return string(f)
}

// AllForms returns all recognized forms.
func AllForms() []Form {
	return []Form{FormBrick, FormPlank, FormBall, FormPyramid, FormBox, FormTable}
}

// Size is the size class of an object.
type Size string

// Known sizes.
const (
	SizeSmall Size = "small"
	SizeLarge Size = "large"
)

// IsValid returns true if the size is small or large.
func (s Size) IsValid() bool {
	return s == SizeSmall || s == SizeLarge
}

// String returns the string representation of the size.
func (s Size) String() string {
	return string(s)
}

// Object holds the immutable physical attributes of a world object.
type Object struct {
	Form  Form   `json:"form" yaml:"form"`
	Size  Size   `json:"size" yaml:"size"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Validate checks that form and size are recognized.
func (o Object) Validate() error {
	if !o.Form.IsValid() {
		return fmt.Errorf("%w: unknown form %q", ErrInvalidState, o.Form)
	}
	if !o.Size.IsValid() {
		return fmt.Errorf("%w: unknown size %q", ErrInvalidState, o.Size)
	}
	return nil
}

// Describe returns a short noun phrase such as "small white brick".
func (o Object) Describe() string {
	if o.Color == "" {
		return fmt.Sprintf("%s %s", o.Size, o.Form)
	}
	return fmt.Sprintf("%s %s %s", o.Size, o.Color, o.Form)
}

// Objects maps object identifiers to their attributes.
// A map handed to NewState must not be modified afterwards; states share it.
type Objects map[string]Object
