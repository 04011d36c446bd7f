// Package signature defines the miTNM signature: the legal staging codes,
// the JSON Schema a model response must satisfy, and the validation pass
// that turns an untyped decoded document into a typed Signature.
package signature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Unknown is the sentinel for a categorical field without usable evidence.
const Unknown = "unknown"

// Keys of the external Signature JSON document.
const (
	KeySignature  = "miTNM_signature"
	KeyConfidence = "confidence"
	KeyRationale  = "rationale"

	KeyMiT = "miT"
	KeyMiN = "miN"
	KeyMiM = "miM"
)

// Field describes one categorical field of the signature.
type Field struct {
	Key   string   // JSON key inside miTNM_signature
	Legal []string // Legal staging codes, "unknown" excluded
}

// Categorical fields in output order.
var (
	FieldMiT = Field{
		Key:   KeyMiT,
		Legal: []string{"miT0", "miT1", "miT2", "miT2u", "miT2m", "miT3", "miT3a", "miT3b", "miT4", "miTr", "miTX"},
	}
	FieldMiN = Field{
		Key:   KeyMiN,
		Legal: []string{"miN0", "miN1", "miN1a", "miN1b", "miN2", "miNX"},
	}
	FieldMiM = Field{
		Key:   KeyMiM,
		Legal: []string{"miM0", "miM1", "miM1a", "miM1b", "miM1c", "miMX"},
	}

	Fields = []Field{FieldMiT, FieldMiN, FieldMiM}
)

// Enum returns the legal codes followed by the "unknown" sentinel.
func (f Field) Enum() []string {
	out := make([]string, 0, len(f.Legal)+1)
	out = append(out, f.Legal...)
	return append(out, Unknown)
}

// IsLegal reports whether code is an exact legal value (sentinel included).
func (f Field) IsLegal(code string) bool {
	if code == Unknown {
		return true
	}
	for _, c := range f.Legal {
		if c == code {
			return true
		}
	}
	return false
}

// BuildJSONSchema returns the JSON Schema (draft 2020-12 subset) of a fully
// conforming Signature document as a generic map. Every key is required and
// no additional properties are allowed, so anything less than a perfect
// response goes through the coercion pass and gets its anomalies recorded.
func BuildJSONSchema() map[string]any {
	codes := make(map[string]any, len(Fields))
	keys := make([]string, 0, len(Fields))
	for _, f := range Fields {
		codes[f.Key] = map[string]any{"type": "string", "enum": f.Enum()}
		keys = append(keys, f.Key)
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			KeySignature: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           codes,
				"required":             keys,
			},
			KeyConfidence: map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			KeyRationale:  map[string]any{"type": "string"},
		},
		"required": []string{KeySignature, KeyConfidence, KeyRationale},
	}
}

// JSONSchema returns BuildJSONSchema serialized, suitable as a structured
// output format for the inference endpoint.
func JSONSchema() json.RawMessage {
	b, err := json.Marshal(BuildJSONSchema())
	if err != nil {
		// The schema is a static tree of maps, slices and strings.
		panic(fmt.Sprintf("signature: marshal schema: %v", err))
	}
	return b
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("signature.json", bytes.NewReader(JSONSchema())); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("signature.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// ValidateStrict checks a decoded document (as produced by json.Unmarshal
// into an any) against the strict schema.
func ValidateStrict(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
