package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/logsieve/logsieve/internal/model"
	sieveerr "github.com/logsieve/logsieve/pkg/errors"
	"github.com/logsieve/logsieve/pkg/schema"
	"github.com/logsieve/logsieve/pkg/timestamp"
)

// fieldSpecFile is the on-disk shape of a field specification.
//
//	fields:
//	  - name: timestamp
//	    required: true
//	    type: timestamp
//	  - name: action
//	    type: enum
//	    values: [success, failure, blocked]
type fieldSpecFile struct {
	Fields []fieldDecl `yaml:"fields"`
}

type fieldDecl struct {
	Name      string   `yaml:"name"`
	Required  bool     `yaml:"required"`
	Type      string   `yaml:"type"`
	Values    []string `yaml:"values"`
	MinLength int      `yaml:"min_length"`
	MaxLength int      `yaml:"max_length"`
}

// LoadFieldSpec reads a YAML field specification. An empty path returns
// the built-in authentication log specification.
func LoadFieldSpec(path string) (*schema.Spec, error) {
	if path == "" {
		return schema.DefaultAuthSpec(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sieveerr.Wrap(err, sieveerr.CodeConfigInvalid, "cannot read field specification "+path)
	}

	var file fieldSpecFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, sieveerr.ConfigInvalid(path + ": " + err.Error())
	}

	fields := make([]schema.FieldSpec, 0, len(file.Fields))
	for _, d := range file.Fields {
		typ := model.TypeString
		if d.Type != "" {
			t, ok := model.ParseFieldType(d.Type)
			if !ok {
				return nil, sieveerr.New(sieveerr.CodeSpecUnknownTyp,
					fmt.Sprintf("field %q has unknown type %q", d.Name, d.Type))
			}
			typ = t
		}
		fields = append(fields, schema.FieldSpec{
			Name:     d.Name,
			Required: d.Required,
			Type:     typ,
			Enum:     d.Values,
			MinLen:   d.MinLength,
			MaxLen:   d.MaxLength,
		})
	}
	return schema.NewSpec(fields)
}

// BuildTimestampValidator wires the timestamp section into a validator.
func BuildTimestampValidator(tc TimestampConfig) (*timestamp.Validator, error) {
	formats := timestamp.DefaultFormats()
	if len(tc.Formats) > 0 {
		parsed, err := timestamp.ParseFormats(tc.Formats)
		if err != nil {
			return nil, err
		}
		formats = parsed
	}

	bounds := timestamp.DefaultBounds()
	bounds.Tolerance = tc.ToleranceDuration()
	floor, err := tc.FloorTime()
	if err != nil {
		return nil, err
	}
	if !floor.IsZero() {
		bounds.Floor = floor
	}

	field := tc.Field
	if field == "" {
		field = "timestamp"
	}

	opts := []timestamp.Option{timestamp.WithBounds(bounds)}
	if tc.Prefer != "" {
		if _, err := timestamp.LookupFormat(tc.Prefer); err != nil {
			return nil, err
		}
		opts = append(opts, timestamp.WithPreferred(tc.Prefer))
	}
	return timestamp.NewValidator(field, formats, opts...), nil
}
