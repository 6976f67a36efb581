package oracle

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Schema returns the JSON schema describing out, which must be a pointer to a struct.
func Schema(out any) (*jsonschema.Definition, error) {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, fmt.Errorf("%w: expected a non-nil pointer, got %T", ErrStructuredOutput, out)
	}
	def, err := jsonschema.GenerateSchemaForType(v.Elem().Interface())
	if err != nil {
		return nil, fmt.Errorf("%w: generate schema: %v", ErrStructuredOutput, err)
	}
	return def, nil
}

// SchemaInstruction renders the schema as a prompt suffix for providers
// without native schema enforcement.
func SchemaInstruction(def *jsonschema.Definition) (string, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("%w: marshal schema: %v", ErrStructuredOutput, err)
	}
	return "\n\nRespond with a single JSON object that conforms to this JSON schema, and nothing else:\n" + string(raw), nil
}

// Decode parses a model reply into out. Code fences are stripped, malformed
// JSON is repaired once, and every required top-level property must be present.
func Decode(content string, def *jsonschema.Definition, out any) error {
	content = stripFences(content)
	if content == "" {
		return fmt.Errorf("%w: empty reply", ErrStructuredOutput)
	}

	if !json.Valid([]byte(content)) {
		repaired, err := jsonrepair.JSONRepair(content)
		if err != nil {
			return fmt.Errorf("%w: repair: %v", ErrStructuredOutput, err)
		}
		content = repaired
	}

	if def != nil && len(def.Required) > 0 {
		var top map[string]json.RawMessage
		if err := json.Unmarshal([]byte(content), &top); err != nil {
			return fmt.Errorf("%w: %v", ErrStructuredOutput, err)
		}
		for _, key := range def.Required {
			if _, ok := top[key]; !ok {
				return fmt.Errorf("%w: missing required property %q", ErrStructuredOutput, key)
			}
		}
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", ErrStructuredOutput, err)
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
