package utils

import "testing"

func TestSignAndParseJWT(t *testing.T) {
	tok, err := SignJWT("secret", "user-1", "homeowner", "sess-1", 5)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	claims, err := ParseJWT("secret", tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "homeowner" || claims.SessionID != "sess-1" {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := ParseJWT("other", tok); err == nil {
		t.Error("token signed with another secret must not parse")
	}
}

func TestExpiredJWT(t *testing.T) {
	tok, err := SignJWT("secret", "user-1", "admin", "s", -1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT("secret", tok); err == nil {
		t.Error("expired token accepted")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password1234")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "password1234") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "password9999") {
		t.Error("wrong password accepted")
	}
}
