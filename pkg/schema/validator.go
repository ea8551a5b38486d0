package schema

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/logsieve/logsieve/internal/model"
)

// Validator checks raw records against a Spec. Side-effect free and
// safe for concurrent use.
type Validator struct {
	spec *Spec

	// skipField names the designated timestamp field, which the
	// timestamp validator owns. Checking it here too would double-count
	// its issues in the report.
	skipField string

	// tsCheck reports whether a value parses as a timestamp. Used for
	// timestamp-typed fields other than the designated one.
	tsCheck func(string) bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithTimestampField excludes the designated timestamp field from
// schema checks.
func WithTimestampField(name string) ValidatorOption {
	return func(v *Validator) { v.skipField = name }
}

// WithTimestampCheck supplies the timestamp parser used for
// timestamp-typed fields.
func WithTimestampCheck(fn func(string) bool) ValidatorOption {
	return func(v *Validator) { v.tsCheck = fn }
}

// NewValidator creates a schema validator.
func NewValidator(spec *Spec, opts ...ValidatorOption) *Validator {
	v := &Validator{
		spec:    spec,
		tsCheck: defaultTimestampCheck,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the record's field issues in deterministic order:
// declared fields in specification order, then unexpected fields in the
// record's original order. It never rejects a record, only annotates.
func (v *Validator) Validate(rec *model.RawRecord) []model.FieldIssue {
	var issues []model.FieldIssue

	// Pass 1: declared fields, in declaration order.
	for _, fs := range v.spec.Fields() {
		if fs.Name == v.skipField {
			continue
		}

		value, present, null := rec.Get(fs.Name)
		empty := !present || null || strings.TrimSpace(value) == ""
		if empty {
			if fs.Required {
				issues = append(issues, model.FieldIssue{
					Kind:  model.MissingField,
					Field: fs.Name,
				})
			}
			continue
		}

		if issue, ok := v.coerce(fs, value); !ok {
			issues = append(issues, issue)
		}
	}

	// Pass 2: unexpected fields, in record order.
	for _, f := range rec.Fields {
		if _, declared := v.spec.Lookup(f.Name); declared {
			continue
		}
		if f.Name == v.skipField {
			continue
		}
		issues = append(issues, model.FieldIssue{
			Kind:  model.UnexpectedField,
			Field: f.Name,
		})
	}

	return issues
}

// coerce attempts type coercion of a non-empty value. On failure it
// returns the TypeMismatch issue and false.
func (v *Validator) coerce(fs FieldSpec, value string) (model.FieldIssue, bool) {
	mismatch := func(actual string) (model.FieldIssue, bool) {
		return model.FieldIssue{
			Kind:     model.TypeMismatch,
			Field:    fs.Name,
			Expected: fs.Type,
			Actual:   actual,
		}, false
	}

	switch fs.Type {
	case model.TypeString:
		n := len(value)
		if n < fs.MinLen || (fs.MaxLen > 0 && n > fs.MaxLen) {
			return mismatch(fmt.Sprintf("string[%d]", n))
		}
	case model.TypeInteger:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return mismatch(apparentType(value))
		}
	case model.TypeIPAddress:
		if _, err := netip.ParseAddr(value); err != nil {
			return mismatch(apparentType(value))
		}
	case model.TypeEnum:
		for _, allowed := range fs.Enum {
			if value == allowed {
				return model.FieldIssue{}, true
			}
		}
		return mismatch(fmt.Sprintf("%q not in allowed values", value))
	case model.TypeTimestamp:
		if !v.tsCheck(value) {
			return mismatch(apparentType(value))
		}
	}
	return model.FieldIssue{}, true
}

// apparentType names the observed type of a raw value for TypeMismatch
// reporting.
func apparentType(value string) string {
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return "integer"
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return "float"
	}
	if _, err := netip.ParseAddr(value); err == nil {
		return "ipAddress"
	}
	if defaultTimestampCheck(value) {
		return "timestamp"
	}
	return "string"
}

var commonLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func defaultTimestampCheck(value string) bool {
	for _, layout := range commonLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
