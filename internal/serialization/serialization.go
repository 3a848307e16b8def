// Package serialization converts screening records to and from JSON.
package serialization

import (
	"encoding/json"
	"fmt"

	"resumescreener/internal/errors"

	"github.com/tidwall/gjson"
)

// Serialize returns v as indented JSON.
func Serialize(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeSerializationError,
			fmt.Sprintf("Failed to serialize %T", v), err)
	}
	return string(data), nil
}

// Deserialize parses s into a T. Unknown fields are ignored.
func Deserialize[T any](s string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return out, errors.NewValidationError(errors.ErrCodeSerializationError,
			fmt.Sprintf("Failed to deserialize %T: %v", out, err), err)
	}
	return out, nil
}

// ValidateSchema reports whether s is a JSON object carrying schema_version.
func ValidateSchema(s string) bool {
	if !gjson.Valid(s) {
		return false
	}
	doc := gjson.Parse(s)
	return doc.IsObject() && doc.Get("schema_version").Exists()
}
