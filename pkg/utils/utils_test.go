package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	h, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword("s3cret", h) {
		t.Fatal("correct password rejected")
	}
	if CheckPassword("wrong", h) {
		t.Fatal("wrong password accepted")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hello", "hello"},
		{"  hi  ", "hi"},
		{"<b>bold</b>", "bold"},
		{`<script>alert(1)</script>ok`, "ok"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsID(t *testing.T) {
	if !IsID(NewID()) {
		t.Fatal("NewID should be valid")
	}
	if IsID("not-an-id") || IsID("") {
		t.Fatal("invalid ids accepted")
	}
}
