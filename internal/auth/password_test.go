package auth

import (
	"testing"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		// Length checks
		{"Short123!", true},
		{"Short12345!", true},
		{"Shorter1234!", false},

		// Complexity checks (exactly 12 characters)
		{"alllowercase", true},
		{"123456789012", true},
		{"!!!!!!!!!!!!", true},
		{"ABCDEFGHIJKL", true},
		{"lower1234567", true},
		{"lowerUPPER!!", false},
		{"Password1234", false},
		{"Lower12345!!", false},
		{"Password123!", false},

		{"ExactlyTwelve", true},
		{"ExactlyTwel1", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePasswordStrength(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Warehouse-2024")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Warehouse-2024" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword(hash, "Warehouse-2024") {
		t.Error("expected password to match its hash")
	}
	if CheckPassword(hash, "warehouse-2024") {
		t.Error("expected different password to be rejected")
	}
}
