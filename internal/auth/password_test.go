package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("HashPassword() returned plaintext")
	}

	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("VerifyPassword() = false for the correct password")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("VerifyPassword() = true for a wrong password")
	}
	if VerifyPassword("correct horse battery staple", "not-a-bcrypt-hash") {
		t.Error("VerifyPassword() = true for a malformed hash")
	}
}

func TestValidCNPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"13812345678", true},
		{"19912345678", true},
		{"15000000000", true},
		{"12812345678", false}, // second digit out of range
		{"1381234567", false},  // too short
		{"138123456789", false},
		{"23812345678", false},
		{"13812345abc", false},
		{"+8613812345678", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidCNPhone(tt.phone); got != tt.want {
			t.Errorf("ValidCNPhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}
