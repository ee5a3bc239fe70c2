package auth

import (
	"strings"
	"testing"
)

func TestGenerateOperatorKey(t *testing.T) {
	t.Parallel()

	key, err := GenerateOperatorKey()
	if err != nil {
		t.Fatalf("GenerateOperatorKey failed: %v", err)
	}

	// Check plaintext format
	if !strings.HasPrefix(key.Plaintext, "opk_") {
		t.Errorf("Key should start with opk_, got: %s", key.Plaintext)
	}
	if !ValidateKeyFormat(key.Plaintext) {
		t.Errorf("Generated key should validate, got: %s", key.Plaintext)
	}

	// Check prefix length
	if len(key.Prefix) != KeyPrefixLen {
		t.Errorf("Prefix should be %d chars, got: %d", KeyPrefixLen, len(key.Prefix))
	}

	// Check hash is not empty and in PHC format
	if key.Hash == "" {
		t.Error("Hash should not be empty")
	}
	if !strings.HasPrefix(key.Hash, "$argon2id$v=") {
		t.Errorf("Hash should be in PHC format, got: %s", key.Hash)
	}

	// Verify plaintext contains prefix
	if !strings.Contains(key.Plaintext, key.Prefix) {
		t.Error("Plaintext should contain prefix")
	}

	// The generated hash must verify the plaintext
	match, err := VerifyKey(key.Plaintext, key.Hash)
	if err != nil {
		t.Fatalf("VerifyKey failed: %v", err)
	}
	if !match {
		t.Error("Generated hash should verify the plaintext key")
	}
}

func TestGenerateOperatorKey_Uniqueness(t *testing.T) {
	t.Parallel()

	k1, err := GenerateOperatorKey()
	if err != nil {
		t.Fatalf("GenerateOperatorKey failed: %v", err)
	}
	k2, err := GenerateOperatorKey()
	if err != nil {
		t.Fatalf("GenerateOperatorKey failed: %v", err)
	}

	if k1.Plaintext == k2.Plaintext {
		t.Error("Two generated keys should never be equal")
	}
}

func TestValidateKeyFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid key", "opk_a1b2c3_0123456789abcdef0123456789abcdef", true},
		{"empty", "", false},
		{"missing prefix", "a1b2c3_0123456789abcdef0123456789abcdef", false},
		{"old api key format", "pk_live_a1b2c3_0123456789abcdef0123456789abcdef", false},
		{"short secret", "opk_a1b2c3_0123456789abcdef", false},
		{"uppercase hex", "opk_A1B2C3_0123456789ABCDEF0123456789ABCDEF", false},
		{"prefix too long", "opk_a1b2c3d4_0123456789abcdef0123456789abcdef", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ValidateKeyFormat(tt.key); got != tt.want {
				t.Errorf("ValidateKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
