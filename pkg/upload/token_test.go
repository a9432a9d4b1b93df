package upload

import (
	"errors"
	"strings"
	"testing"
)

func TestSigner_IssueVerify(t *testing.T) {
	s := NewSigner([]byte("secret"))
	tok, id := s.Issue()
	if !strings.HasPrefix(tok, id+".") {
		t.Fatalf("upload:token_test - token %q does not carry id %q", tok, id)
	}
	got, err := s.Verify(tok)
	if err != nil || got != id {
		t.Errorf("upload:token_test - Verify() = %q, %v", got, err)
	}
}

func TestSigner_Rejects(t *testing.T) {
	s := NewSigner([]byte("secret"))
	other := NewSigner([]byte("other"))
	tok, id := s.Issue()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no signature", id},
		{"empty signature", id + "."},
		{"not a uuid", "abc." + "sig"},
		{"tampered signature", tok + "x"},
		{"other secret", other.Sign(id)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("upload:token_test - Verify(%q) = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}
}

func TestNewSigner_EphemeralSecret(t *testing.T) {
	a, b := NewSigner(nil), NewSigner(nil)
	tok, _ := a.Issue()
	if _, err := b.Verify(tok); err == nil {
		t.Error("upload:token_test - ephemeral secrets should differ")
	}
}
