package domain

import "testing"

func TestPassword_VerifyMatchesOnlyPlaintext(t *testing.T) {
	p, err := NewPassword("s3cret")
	if err != nil {
		t.Fatalf("NewPassword: %v", err)
	}
	if p.Hash() == "s3cret" {
		t.Fatalf("expected hash, got plaintext")
	}
	if !p.Verify("s3cret") {
		t.Fatalf("expected password to verify")
	}
	if p.Verify("S3cret") {
		t.Fatalf("expected different password to fail")
	}
}

func TestPassword_Empty(t *testing.T) {
	if _, err := NewPassword(""); err == nil {
		t.Fatalf("expected error for empty password")
	}

	var zero Password
	if !zero.IsZero() {
		t.Fatalf("expected zero password")
	}
	if zero.Verify("") || zero.Verify("anything") {
		t.Fatalf("zero password must never verify")
	}
}

func TestPasswordFromHash_RoundTrip(t *testing.T) {
	p, _ := NewPassword("pwd")
	loaded := PasswordFromHash(p.Hash())
	if !loaded.Verify("pwd") {
		t.Fatalf("loaded hash should verify the plaintext it came from")
	}
}
