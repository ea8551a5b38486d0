// Package schema defines the field specification for auth/security log
// records and validates raw records against it. Validation never rejects
// a record outright; it annotates each record with an ordered list of
// issues and leaves routing to the classifier.
package schema

import (
	"github.com/logsieve/logsieve/internal/model"
	sieveerrors "github.com/logsieve/logsieve/pkg/errors"
)

// FieldSpec declares one expected field.
type FieldSpec struct {
	Name     string
	Required bool
	Type     model.FieldType

	// Enum lists the allowed values for TypeEnum fields.
	Enum []string

	// MinLen/MaxLen bound string lengths. Zero MaxLen means unbounded.
	MinLen int
	MaxLen int
}

// Spec is an ordered field specification. Declaration order is part of
// the contract: emitted issues follow it, which keeps reports
// deterministic.
type Spec struct {
	fields []FieldSpec
	byName map[string]int
}

// NewSpec builds and checks a specification. A broken specification is
// fatal: per-record recovery cannot compensate for it.
func NewSpec(fields []FieldSpec) (*Spec, error) {
	if len(fields) == 0 {
		return nil, sieveerrors.ConfigInvalid("field specification is empty")
	}

	s := &Spec{
		fields: fields,
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, sieveerrors.ConfigInvalid("field with empty name")
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, sieveerrors.SpecConflict(f.Name, "declared twice")
		}
		if f.Type == model.TypeEnum && len(f.Enum) == 0 {
			return nil, sieveerrors.SpecConflict(f.Name, "enum type without allowed values")
		}
		if f.Type != model.TypeEnum && len(f.Enum) > 0 {
			return nil, sieveerrors.SpecConflict(f.Name, "allowed values on non-enum type")
		}
		if f.MaxLen > 0 && f.MinLen > f.MaxLen {
			return nil, sieveerrors.SpecConflict(f.Name, "minLength exceeds maxLength")
		}
		s.byName[f.Name] = i
	}
	return s, nil
}

// Fields returns the declared fields in declaration order.
func (s *Spec) Fields() []FieldSpec {
	return s.fields
}

// Lookup returns the spec for a field name.
func (s *Spec) Lookup(name string) (FieldSpec, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// TimestampField returns the name of the first timestamp-typed field,
// or empty when none is declared.
func (s *Spec) TimestampField() string {
	for _, f := range s.fields {
		if f.Type == model.TypeTimestamp {
			return f.Name
		}
	}
	return ""
}

// DefaultAuthSpec is the built-in specification for authentication
// logs: timestamp and user are required, the rest annotate context.
func DefaultAuthSpec() *Spec {
	s, err := NewSpec([]FieldSpec{
		{Name: "timestamp", Required: true, Type: model.TypeTimestamp},
		{Name: "user", Required: true, Type: model.TypeString, MinLen: 1, MaxLen: 256},
		{Name: "event_id", Required: false, Type: model.TypeString},
		{Name: "src_ip", Required: false, Type: model.TypeIPAddress},
		{Name: "dest_host", Required: false, Type: model.TypeString, MinLen: 1, MaxLen: 255},
		{Name: "action", Required: false, Type: model.TypeEnum, Enum: []string{"success", "failure", "blocked"}},
	})
	if err != nil {
		panic(err) // built-in spec is known valid
	}
	return s
}
