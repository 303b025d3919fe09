// Package host defines the variable-store capability the import and export
// engines drive: collections with ordered modes, typed variables holding one
// value per mode, and alias references between variables.
package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Errors returned by stores. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrTypeMismatch = errors.New("value does not match variable type")
	ErrDuplicate    = errors.New("name already exists")
	ErrInvalidName  = errors.New("invalid name")
)

// ResolvedType is the host-native type of a variable.
type ResolvedType string

const (
	TypeColor   ResolvedType = "COLOR"
	TypeFloat   ResolvedType = "FLOAT"
	TypeBoolean ResolvedType = "BOOLEAN"
	TypeString  ResolvedType = "STRING"
)

// Valid reports whether t is one of the four host types.
func (t ResolvedType) Valid() bool {
	switch t {
	case TypeColor, TypeFloat, TypeBoolean, TypeString:
		return true
	}
	return false
}

// DefaultModeName is the name hosts give the mode of a new collection.
const DefaultModeName = "Mode 1"

// Mode is a named value slot within a collection.
type Mode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Collection groups variables that share a set of modes.
type Collection struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Modes []Mode `json:"modes"`
}

// ModeByName returns the first mode named name.
func (c *Collection) ModeByName(name string) (Mode, bool) {
	for _, m := range c.Modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}

// Clone returns a deep copy.
func (c *Collection) Clone() *Collection {
	out := *c
	out.Modes = append([]Mode(nil), c.Modes...)
	return &out
}

// Color is an RGBA color with channels in 0..1.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Alias is a value that references another variable by id.
type Alias struct {
	ID string `json:"id"`
}

// Value is a per-mode variable value: Color, float64, bool, string or Alias.
type Value any

// AliasTo builds an alias value pointing at target.
func AliasTo(target *Variable) Alias {
	return Alias{ID: target.ID}
}

// AsAlias reports whether v is an alias reference.
func AsAlias(v Value) (Alias, bool) {
	a, ok := v.(Alias)
	if !ok || a.ID == "" {
		return Alias{}, false
	}
	return a, true
}

// CheckValue verifies that v can be stored in a variable of type t.
func CheckValue(t ResolvedType, v Value) error {
	if _, ok := v.(Alias); ok {
		return nil
	}
	var ok bool
	switch t {
	case TypeColor:
		_, ok = v.(Color)
	case TypeFloat:
		_, ok = v.(float64)
	case TypeBoolean:
		_, ok = v.(bool)
	case TypeString:
		_, ok = v.(string)
	}
	if !ok {
		return fmt.Errorf("%w: %s cannot hold %T", ErrTypeMismatch, t, v)
	}
	return nil
}

// ValidateVariable checks a variable name and type before creation. Names
// are slash-delimited paths with no empty segments.
func ValidateVariable(name string, t ResolvedType) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, "//") ||
		strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("variable name %q: %w", name, ErrInvalidName)
	}
	if !t.Valid() {
		return fmt.Errorf("variable %q: unknown type %q", name, t)
	}
	return nil
}

// Variable is a typed, named entity holding one value per mode.
type Variable struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	CollectionID string           `json:"collectionId"`
	Type         ResolvedType     `json:"resolvedType"`
	Values       map[string]Value `json:"-"`
}

// Clone returns a copy with its own value map.
func (v *Variable) Clone() *Variable {
	out := *v
	out.Values = make(map[string]Value, len(v.Values))
	for k, val := range v.Values {
		out.Values[k] = val
	}
	return &out
}

// Revisioner is implemented by stores that expose a change counter. The
// revision must differ after any write, including writes made through another
// handle on the same data.
type Revisioner interface {
	Revision(ctx context.Context) (int64, error)
}

// Store is the host variable-store capability. Every call may fail and may
// block; implementations honor ctx where they perform I/O.
type Store interface {
	// Collections returns local collections in creation order.
	Collections(ctx context.Context) ([]*Collection, error)
	// Variables returns local variables in creation order.
	Variables(ctx context.Context) ([]*Variable, error)

	CollectionByID(ctx context.Context, id string) (*Collection, error)
	VariableByID(ctx context.Context, id string) (*Variable, error)

	// CreateCollection creates a collection holding a single DefaultModeName mode.
	CreateCollection(ctx context.Context, name string) (*Collection, error)
	AddMode(ctx context.Context, collectionID, name string) (string, error)
	RenameMode(ctx context.Context, collectionID, modeID, name string) error
	CreateVariable(ctx context.Context, name, collectionID string, t ResolvedType) (*Variable, error)
	SetValue(ctx context.Context, variableID, modeID string, v Value) error
	RemoveCollection(ctx context.Context, id string) error
}
