// Package schema holds the entity metadata the query builder and the
// relational targets resolve property paths against: entities, their
// field-to-column mapping and their associations.
package schema

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultIdentifier is the identifier field used when an entity declares none.
const DefaultIdentifier = "id"

var (
	// ErrUnknownEntity is returned when an entity name is not registered.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnknownField is returned when a field or association is not mapped.
	ErrUnknownField = errors.New("unknown field")
)

// Field maps an entity property to a table column.
type Field struct {
	Name   string `json:"name"`
	Column string `json:"column,omitempty"`
}

// ColumnName returns the mapped column, defaulting to the field name.
func (f Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// Association links an entity to another one.
//
// For an owning association the join column lives on the owner's table and
// references the target's ReferencedColumn. For an inverse association
// (Inverse true) the join column lives on the target's table and references
// the owner's ReferencedColumn.
type Association struct {
	Name             string `json:"name"`
	Target           string `json:"target"`
	JoinColumn       string `json:"joinColumn"`
	ReferencedColumn string `json:"referencedColumn,omitempty"`
	Inverse          bool   `json:"inverse,omitempty"`
}

// Referenced returns the referenced column, defaulting to "id".
func (a Association) Referenced() string {
	if a.ReferencedColumn != "" {
		return a.ReferencedColumn
	}
	return DefaultIdentifier
}

// Entity describes one mapped entity.
type Entity struct {
	Name         string        `json:"name"`
	Table        string        `json:"table"`
	Identifier   string        `json:"identifier,omitempty"`
	Fields       []Field       `json:"fields"`
	Associations []Association `json:"associations,omitempty"`
}

// ID returns the identifier field name.
func (e *Entity) ID() string {
	if e.Identifier != "" {
		return e.Identifier
	}
	return DefaultIdentifier
}

// Field returns the field called name.
func (e *Entity) Field(name string) (Field, bool) {
	i := slices.IndexFunc(e.Fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}
	return e.Fields[i], true
}

// Column returns the column mapped to field name.
func (e *Entity) Column(name string) (string, error) {
	f, ok := e.Field(name)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownField, e.Name, name)
	}
	return f.ColumnName(), nil
}

// Association returns the association called name.
func (e *Entity) Association(name string) (Association, bool) {
	i := slices.IndexFunc(e.Associations, func(a Association) bool { return a.Name == name })
	if i < 0 {
		return Association{}, false
	}
	return e.Associations[i], true
}

// Schema is a set of entities, keyed by name.
type Schema struct {
	entities map[string]*Entity
	order    []string
}

// New builds a schema and checks that every association targets a
// registered entity.
func New(entities ...Entity) (*Schema, error) {
	s := &Schema{entities: make(map[string]*Entity, len(entities))}
	for i := range entities {
		e := entities[i]
		if e.Name == "" {
			return nil, fmt.Errorf("entity %d: missing name", i)
		}
		if _, dup := s.entities[e.Name]; dup {
			return nil, fmt.Errorf("entity %s: declared twice", e.Name)
		}
		if e.Table == "" {
			e.Table = e.Name
		}
		s.entities[e.Name] = &e
		s.order = append(s.order, e.Name)
	}

	for _, name := range s.order {
		for _, assoc := range s.entities[name].Associations {
			if _, ok := s.entities[assoc.Target]; !ok {
				return nil, fmt.Errorf("%s.%s: %w: %s", name, assoc.Name, ErrUnknownEntity, assoc.Target)
			}
		}
	}
	return s, nil
}

// MustNew is New that panics on error. Intended for tests and fixed schemas.
func MustNew(entities ...Entity) *Schema {
	s, err := New(entities...)
	if err != nil {
		panic(err)
	}
	return s
}

// Entity returns the entity called name.
func (s *Schema) Entity(name string) (*Entity, error) {
	e, ok := s.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return e, nil
}

// Entities returns every entity in declaration order.
func (s *Schema) Entities() []*Entity {
	out := make([]*Entity, len(s.order))
	for i, name := range s.order {
		out[i] = s.entities[name]
	}
	return out
}
