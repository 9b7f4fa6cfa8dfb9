package auth

import (
	"errors"
	"testing"
	"time"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("0123456789abcdef"), Issuer: "test", TTL: time.Hour}
}

func TestIssueParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := j.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UID != "u1" || c.Username != "alice" || c.Role != "user" {
		t.Fatalf("claims = %+v", c)
	}
	uid, err := j.UserID(tok)
	if err != nil || uid != "u1" {
		t.Fatalf("UserID = %q, %v", uid, err)
	}
}

func TestParse_Rejects(t *testing.T) {
	j := newJWTer()
	good, _ := j.Issue("u1", "alice", "user")

	other := &JWTer{Secret: []byte("another-secret-123"), Issuer: "test", TTL: time.Hour}
	forged, _ := other.Issue("u1", "alice", "admin")

	wrongIss := &JWTer{Secret: j.Secret, Issuer: "evil", TTL: time.Hour}
	badIss, _ := wrongIss.Issue("u1", "alice", "user")

	expiredJ := &JWTer{Secret: j.Secret, Issuer: "test", TTL: -time.Hour}
	expired, _ := expiredJ.Issue("u1", "alice", "user")

	tests := []struct {
		name string
		tok  string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"tampered", good + "x"},
		{"wrong secret", forged},
		{"wrong issuer", badIss},
		{"expired", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := j.Parse(tt.tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
