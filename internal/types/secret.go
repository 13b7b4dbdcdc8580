package types

import (
	"encoding/json"
	"log/slog"
)

// Secret holds a sensitive string (API keys, store passwords) and redacts
// itself in logs, JSON config dumps, and error messages.
type Secret struct {
	value string
}

func NewSecret(value string) Secret {
	return Secret{value: value}
}

func (s Secret) Value() string {
	return s.value
}

func (s Secret) IsEmpty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	if s.value == "" {
		return ""
	}
	return "[REDACTED]"
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value == "[REDACTED]" {
		return nil
	}
	s.value = value
	return nil
}
