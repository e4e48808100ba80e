package config

// schemaJSON describes the shape of the YAML config file recognized at
// MANCER_CONFIG_PATH. validate compiles it on each call and checks the raw
// decoded document against it before that document is unmarshalled into Config, so
// a malformed file fails loudly instead of silently zero-valuing fields.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "allowed_versions": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string"}
      }
    },
    "cache": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "capacity": {"type": "integer", "minimum": 1},
        "ttl_seconds": {"type": "integer", "minimum": 0}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error", "critical"]},
        "file": {"type": "string"}
      }
    },
    "ssh": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "known_hosts_policy": {"type": "string", "enum": ["strict", "warn", "accept-new", "off"]},
        "default_key_path": {"type": "string"}
      }
    }
  }
}`
