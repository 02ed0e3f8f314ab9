package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// snapshotSchemaJSON is the wire contract for snapshot documents. It is
// checked before unmarshaling so malformed files report the offending field
// path; semantic rules (estimate ordering, duplicate ids) live in Validate.
const snapshotSchemaJSON = `{
	"type": "object",
	"required": ["projects"],
	"additionalProperties": false,
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"exported_at": {"type": "string"},
		"projects": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "name", "created_at"],
				"additionalProperties": false,
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string", "minLength": 1},
					"unit": {"enum": ["hours", "days", "weeks", "months", "years"]},
					"created_at": {"type": "string"},
					"analyzed_at": {"type": "string"},
					"activities": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["id", "optimistic", "most_likely", "pessimistic"],
							"additionalProperties": false,
							"properties": {
								"id": {"type": "string", "minLength": 1},
								"description": {"type": "string"},
								"kind": {"enum": ["three-point", "single"]},
								"optimistic": {"type": "number"},
								"most_likely": {"type": "number"},
								"pessimistic": {"type": "number"},
								"depends_on": {"type": "array", "items": {"type": "string"}}
							}
						}
					}
				}
			}
		}
	}
}`

// snapshotPayloadSchema is compiled once at package init. The schema text is
// a constant, so a compile failure is a programmer error.
var snapshotPayloadSchema = mustCompilePayloadSchema(snapshotSchemaJSON)

// SchemaValidationError describes a deterministic schema-validation failure.
type SchemaValidationError struct {
	Path    string
	Message string
}

// Error renders the schema-validation failure.
func (e SchemaValidationError) Error() string {
	path := strings.TrimSpace(e.Path)
	if path == "" {
		path = "$"
	}
	return fmt.Sprintf("%s: %s", path, e.Message)
}

// payloadSchema validates JSON documents against a compiled subset of JSON
// Schema: the object/array/string/number types plus required, properties,
// additionalProperties, enum, items, and minLength.
type payloadSchema struct {
	root *payloadSchemaNode
}

// payloadSchemaNode is one compiled schema node.
type payloadSchemaNode struct {
	typ             string
	required        []string
	properties      map[string]*payloadSchemaNode
	allowAdditional bool
	enum            []any
	items           *payloadSchemaNode
	minLength       *int
}

func mustCompilePayloadSchema(raw string) *payloadSchema {
	schema, err := compilePayloadSchema(raw)
	if err != nil {
		panic(fmt.Sprintf("app: compile snapshot schema: %v", err))
	}
	return schema
}

// compilePayloadSchema compiles a schema document into a reusable validator.
func compilePayloadSchema(raw string) (*payloadSchema, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}
	root, err := compilePayloadSchemaNode(decoded, "$")
	if err != nil {
		return nil, err
	}
	return &payloadSchema{root: root}, nil
}

// ValidatePayload validates raw JSON bytes against the compiled schema.
func (s *payloadSchema) ValidatePayload(payload []byte) error {
	if s == nil || s.root == nil {
		return nil
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return SchemaValidationError{Path: "$", Message: "document is empty"}
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return SchemaValidationError{Path: "$", Message: fmt.Sprintf("invalid JSON payload: %v", err)}
	}
	return validatePayloadNode(s.root, decoded, "$")
}

// compilePayloadSchemaNode compiles one schema node recursively.
func compilePayloadSchemaNode(raw any, path string) (*payloadSchemaNode, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, SchemaValidationError{Path: path, Message: "schema must be an object"}
	}

	node := &payloadSchemaNode{
		properties:      map[string]*payloadSchemaNode{},
		allowAdditional: true,
	}

	if rawType, ok := obj["type"]; ok {
		typeText, ok := rawType.(string)
		if !ok {
			return nil, SchemaValidationError{Path: path + ".type", Message: "must be a string"}
		}
		node.typ = strings.TrimSpace(strings.ToLower(typeText))
		switch node.typ {
		case "object", "array", "string", "number":
		default:
			return nil, SchemaValidationError{Path: path + ".type", Message: fmt.Sprintf("unsupported type %q", node.typ)}
		}
	}

	if rawRequired, ok := obj["required"]; ok {
		requiredList, ok := rawRequired.([]any)
		if !ok {
			return nil, SchemaValidationError{Path: path + ".required", Message: "must be an array"}
		}
		seen := map[string]struct{}{}
		for idx, item := range requiredList {
			field, ok := item.(string)
			if !ok {
				return nil, SchemaValidationError{Path: fmt.Sprintf("%s.required[%d]", path, idx), Message: "must be a string"}
			}
			field = strings.TrimSpace(field)
			if field == "" {
				return nil, SchemaValidationError{Path: fmt.Sprintf("%s.required[%d]", path, idx), Message: "must not be empty"}
			}
			if _, exists := seen[field]; exists {
				continue
			}
			seen[field] = struct{}{}
			node.required = append(node.required, field)
		}
		sort.Strings(node.required)
	}

	if rawProps, ok := obj["properties"]; ok {
		props, ok := rawProps.(map[string]any)
		if !ok {
			return nil, SchemaValidationError{Path: path + ".properties", Message: "must be an object"}
		}
		keys := make([]string, 0, len(props))
		for key := range props {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			compiled, err := compilePayloadSchemaNode(props[key], path+".properties."+key)
			if err != nil {
				return nil, err
			}
			node.properties[key] = compiled
		}
	}

	if rawAdditional, ok := obj["additionalProperties"]; ok {
		allow, ok := rawAdditional.(bool)
		if !ok {
			return nil, SchemaValidationError{Path: path + ".additionalProperties", Message: "must be a boolean"}
		}
		node.allowAdditional = allow
	}

	if rawEnum, ok := obj["enum"]; ok {
		enumList, ok := rawEnum.([]any)
		if !ok {
			return nil, SchemaValidationError{Path: path + ".enum", Message: "must be an array"}
		}
		node.enum = append([]any(nil), enumList...)
	}

	if rawItems, ok := obj["items"]; ok {
		compiled, err := compilePayloadSchemaNode(rawItems, path+".items")
		if err != nil {
			return nil, err
		}
		node.items = compiled
	}

	if rawMin, ok := obj["minLength"]; ok {
		min, err := parseSchemaLength(rawMin)
		if err != nil {
			return nil, SchemaValidationError{Path: path + ".minLength", Message: err.Error()}
		}
		node.minLength = &min
	}

	return node, nil
}

// parseSchemaLength converts a JSON number into a length bound.
func parseSchemaLength(raw any) (int, error) {
	value, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("must be a number")
	}
	if value < 0 {
		return 0, fmt.Errorf("must be >= 0")
	}
	if value != float64(int(value)) {
		return 0, fmt.Errorf("must be an integer")
	}
	return int(value), nil
}

// validatePayloadNode validates one decoded value against one schema node.
func validatePayloadNode(node *payloadSchemaNode, value any, path string) error {
	if node == nil {
		return nil
	}

	if len(node.enum) > 0 {
		matched := false
		for _, candidate := range node.enum {
			if reflect.DeepEqual(candidate, value) {
				matched = true
				break
			}
		}
		if !matched {
			return SchemaValidationError{Path: path, Message: "value is not in enum set"}
		}
	}

	switch node.typ {
	case "", "object":
		obj, ok := value.(map[string]any)
		if !ok {
			if node.typ == "" {
				return nil
			}
			return SchemaValidationError{Path: path, Message: "expected object"}
		}
		for _, key := range node.required {
			if _, exists := obj[key]; !exists {
				return SchemaValidationError{Path: path, Message: fmt.Sprintf("missing required field %q", key)}
			}
		}
		for key, childValue := range obj {
			childSchema, ok := node.properties[key]
			if !ok {
				if !node.allowAdditional {
					return SchemaValidationError{Path: path, Message: fmt.Sprintf("additional property %q is not allowed", key)}
				}
				continue
			}
			if err := validatePayloadNode(childSchema, childValue, path+"."+key); err != nil {
				return err
			}
		}
		return nil
	case "array":
		items, ok := value.([]any)
		if !ok {
			return SchemaValidationError{Path: path, Message: "expected array"}
		}
		for idx, item := range items {
			if err := validatePayloadNode(node.items, item, fmt.Sprintf("%s[%d]", path, idx)); err != nil {
				return err
			}
		}
		return nil
	case "string":
		text, ok := value.(string)
		if !ok {
			return SchemaValidationError{Path: path, Message: "expected string"}
		}
		if node.minLength != nil && len(text) < *node.minLength {
			return SchemaValidationError{Path: path, Message: fmt.Sprintf("string length must be >= %d", *node.minLength)}
		}
		return nil
	case "number":
		if _, ok := value.(float64); !ok {
			return SchemaValidationError{Path: path, Message: "expected number"}
		}
		return nil
	default:
		return SchemaValidationError{Path: path, Message: fmt.Sprintf("unsupported type %q", node.typ)}
	}
}
