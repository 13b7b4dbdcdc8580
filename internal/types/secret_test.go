package types

import (
	"encoding/json"
	"testing"
)

func TestSecretString(t *testing.T) {
	t.Run("redacts non-empty value", func(t *testing.T) {
		s := NewSecret("hunter2")
		if got := s.String(); got != "[REDACTED]" {
			t.Errorf("String() = %q, want [REDACTED]", got)
		}
		if got := s.Value(); got != "hunter2" {
			t.Errorf("Value() = %q, want hunter2", got)
		}
	})

	t.Run("empty stays empty", func(t *testing.T) {
		var s Secret
		if got := s.String(); got != "" {
			t.Errorf("String() = %q, want empty", got)
		}
		if !s.IsEmpty() {
			t.Error("IsEmpty() = false, want true")
		}
	})
}

func TestSecretJSON(t *testing.T) {
	t.Run("marshals redacted", func(t *testing.T) {
		data, err := json.Marshal(NewSecret("api-key-123"))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != `"[REDACTED]"` {
			t.Errorf("Marshal() = %s, want \"[REDACTED]\"", data)
		}
	})

	t.Run("unmarshals plain value", func(t *testing.T) {
		var s Secret
		if err := json.Unmarshal([]byte(`"api-key-123"`), &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if s.Value() != "api-key-123" {
			t.Errorf("Value() = %q, want api-key-123", s.Value())
		}
	})

	t.Run("round trip does not clobber value with redaction", func(t *testing.T) {
		s := NewSecret("keep-me")
		data, _ := json.Marshal(s)
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if s.Value() != "keep-me" {
			t.Errorf("Value() = %q after round trip, want keep-me", s.Value())
		}
	})
}
