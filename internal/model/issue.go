package model

import (
	"fmt"
	"strings"
)

// FieldIssueKind classifies schema violations.
type FieldIssueKind uint8

const (
	MissingField FieldIssueKind = iota
	UnexpectedField
	TypeMismatch
)

// String returns the wire name used in reports and quarantine output.
func (k FieldIssueKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case UnexpectedField:
		return "unexpected_field"
	case TypeMismatch:
		return "type_mismatch"
	default:
		return "unknown"
	}
}

// FieldType is the declared type of a spec field.
type FieldType uint8

const (
	TypeString FieldType = iota
	TypeInteger
	TypeIPAddress
	TypeEnum
	TypeTimestamp
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeIPAddress:
		return "ipAddress"
	case TypeEnum:
		return "enum"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// ParseFieldType parses a type name from a field specification.
// The second return is false for unrecognized names.
func ParseFieldType(s string) (FieldType, bool) {
	switch s {
	case "string":
		return TypeString, true
	case "integer", "int":
		return TypeInteger, true
	case "ipAddress", "ip_address", "ip":
		return TypeIPAddress, true
	case "enum":
		return TypeEnum, true
	case "timestamp", "datetime":
		return TypeTimestamp, true
	default:
		return TypeString, false
	}
}

// FieldIssue annotates one field of one record with a schema violation.
type FieldIssue struct {
	Kind  FieldIssueKind
	Field string

	// Expected and Actual are set for TypeMismatch: the declared type
	// and the apparent type of the observed raw value.
	Expected FieldType
	Actual   string
}

// Detail renders the human-readable issue detail.
func (i FieldIssue) Detail() string {
	switch i.Kind {
	case MissingField:
		return "required field absent"
	case UnexpectedField:
		return "field not declared in specification"
	case TypeMismatch:
		return fmt.Sprintf("expected %s, got %s", i.Expected, i.Actual)
	default:
		return ""
	}
}

// Issue converts to the generic wire form.
func (i FieldIssue) Issue() Issue {
	return Issue{Field: i.Field, Kind: i.Kind.String(), Detail: i.Detail()}
}

// TimestampIssueKind classifies timestamp violations.
type TimestampIssueKind uint8

const (
	TimestampMissing TimestampIssueKind = iota
	TimestampUnparseable
	TimestampAmbiguous
	TimestampOutOfRange
)

func (k TimestampIssueKind) String() string {
	switch k {
	case TimestampMissing:
		return "missing"
	case TimestampUnparseable:
		return "unparseable"
	case TimestampAmbiguous:
		return "ambiguous"
	case TimestampOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// TimestampIssue annotates a record's timestamp field.
type TimestampIssue struct {
	Kind  TimestampIssueKind
	Field string

	// Value is the raw input that failed.
	Value string

	// Candidates lists the format names that matched with differing
	// instants. Set only for TimestampAmbiguous.
	Candidates []string

	// Bound names the violated bound ("floor" or "ceiling").
	// Set only for TimestampOutOfRange.
	Bound string
}

// Detail renders the human-readable issue detail.
func (i TimestampIssue) Detail() string {
	switch i.Kind {
	case TimestampMissing:
		return "timestamp field absent or empty"
	case TimestampUnparseable:
		return fmt.Sprintf("no configured format matches %q", i.Value)
	case TimestampAmbiguous:
		return fmt.Sprintf("%q matches multiple formats: %s", i.Value, strings.Join(i.Candidates, ", "))
	case TimestampOutOfRange:
		return fmt.Sprintf("%q violates %s bound", i.Value, i.Bound)
	default:
		return ""
	}
}

// Issue converts to the generic wire form.
func (i TimestampIssue) Issue() Issue {
	return Issue{Field: i.Field, Kind: i.Kind.String(), Detail: i.Detail()}
}

// Issue is the serialized form every quarantined issue reduces to.
type Issue struct {
	Field  string `json:"field"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}
