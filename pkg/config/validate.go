package config

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	sieveerr "github.com/logsieve/logsieve/pkg/errors"
)

// configSchema rejects unknown top-level keys and wrong value types
// before the merge sees them, so a typo like "piepline:" fails the run
// instead of silently falling back to defaults.
const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "pipeline": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "workers": {"type": "integer", "minimum": 0},
        "buffer_size": {"type": "integer", "minimum": 0},
        "open_timeout": {"type": "string"},
        "download_timeout": {"type": "string"}
      }
    },
    "output": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "clean": {"type": "string"},
        "quarantine": {"type": "string"},
        "report": {"type": "string"},
        "arrow": {"type": "string"}
      }
    },
    "schema": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "spec_file": {"type": "string"}
      }
    },
    "timestamp": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "field": {"type": "string"},
        "formats": {"type": "array", "items": {"type": "string"}},
        "prefer": {"type": "string"},
        "tolerance": {"type": "string"},
        "floor": {"type": "string"}
      }
    },
    "checkpoint": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "backend": {"enum": ["none", "file", "redis"]},
        "path": {"type": "string"},
        "redis": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "addr": {"type": "string"},
            "password": {"type": "string"},
            "db": {"type": "integer", "minimum": 0},
            "ttl": {"type": "string"}
          }
        }
      }
    },
    "s3": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "region": {"type": "string"},
        "endpoint": {"type": "string"},
        "access_key": {"type": "string"},
        "secret_key": {"type": "string"},
        "path_style": {"type": "boolean"}
      }
    },
    "telemetry": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "endpoint": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "error"]},
        "format": {"enum": ["console", "json"]}
      }
    }
  }
}`

var compiledConfigSchema = jsonschema.MustCompileString("config.schema.json", configSchema)

// validateConfigDocument checks a raw YAML config document against the
// schema. The document goes through a JSON round trip so the validator
// sees plain JSON value types.
func validateConfigDocument(path string, data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return sieveerr.ConfigInvalid(path + ": " + err.Error())
	}
	if doc == nil {
		return nil
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return sieveerr.ConfigInvalid(path + ": " + err.Error())
	}
	var jsonDoc interface{}
	if err := json.Unmarshal(raw, &jsonDoc); err != nil {
		return sieveerr.ConfigInvalid(path + ": " + err.Error())
	}

	if err := compiledConfigSchema.Validate(jsonDoc); err != nil {
		return sieveerr.Wrap(err, sieveerr.CodeConfigInvalid, path+": config does not match schema")
	}
	return nil
}
