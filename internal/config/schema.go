package config

// schemaJSON is the embedded JSON Schema enforcing the gross shape of
// the configuration document (spec §6.1) before a single Go struct is
// built from it. It does not attempt the model-specific checks (arc
// variable/event binding, duplicate names) — those need the parsed
// document and live in the referential pass (validate.go), mirroring
// the teacher's CPNParser.parseJsonSchemas + CPN.ValidateStructure
// split between schema-level and structural validation.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["transitions", "event_mapping"],
  "additionalProperties": false,
  "properties": {
    "places": {
      "type": "array",
      "items": {"type": "string"}
    },
    "transitions": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "pre": {"type": "array", "items": {"$ref": "#/$defs/arc"}},
          "post": {"type": "array", "items": {"$ref": "#/$defs/arc"}}
        }
      }
    },
    "event_mapping": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "initial_marking": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {
          "type": "array",
          "minItems": 2,
          "maxItems": 2,
          "items": [{"type": "string"}, {"type": "integer"}]
        }
      }
    }
  },
  "$defs": {
    "arc": {
      "type": "object",
      "required": ["place"],
      "properties": {
        "place": {"type": "string"},
        "variable": {"type": "string"},
        "kind": {"type": "string"},
        "value": {"type": "integer"}
      },
      "additionalProperties": false,
      "oneOf": [
        {"required": ["variable"], "not": {"anyOf": [{"required": ["kind"]}, {"required": ["value"]}]}},
        {"required": ["kind", "value"], "not": {"required": ["variable"]}}
      ]
    }
  }
}`
