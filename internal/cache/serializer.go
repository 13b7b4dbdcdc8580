package cache

import (
	"encoding/json"

	"github.com/ecoloop/greenrank/internal/types"
)

// JSONSerializer implements types.Serializer using JSON encoding.
type JSONSerializer struct{}

func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (s *JSONSerializer) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

var _ types.Serializer = (*JSONSerializer)(nil)
