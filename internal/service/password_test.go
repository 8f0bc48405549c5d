package service

import (
	"strings"
	"testing"
)

// testPasswordParams keeps the KDF cheap so the suite stays fast.
func testPasswordParams() PasswordParams {
	return PasswordParams{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestPasswordService(t *testing.T) *PasswordService {
	t.Helper()
	svc, err := NewPasswordService(testPasswordParams())
	if err != nil {
		t.Fatalf("NewPasswordService returned error: %v", err)
	}
	return svc
}

func TestPasswordService_HashAndVerify(t *testing.T) {
	svc := newTestPasswordService(t)

	hash, err := svc.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Expected argon2id encoded hash, got %q", hash)
	}

	ok, err := svc.Verify("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Error("Expected correct password to verify")
	}

	ok, err = svc.Verify("wrong password", hash)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Error("Expected wrong password to fail verification")
	}
}

func TestPasswordService_HashesAreSalted(t *testing.T) {
	svc := newTestPasswordService(t)

	a, err := svc.Hash("same password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	b, err := svc.Hash("same password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if a == b {
		t.Error("Expected different hashes for the same password")
	}
}

func TestPasswordService_VerifyParamsComeFromHash(t *testing.T) {
	// A hash minted with one parameter set must verify on a service
	// configured with another.
	old := newTestPasswordService(t)
	hash, err := old.Hash("password123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	bumped, err := NewPasswordService(PasswordParams{
		Memory:      16 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewPasswordService returned error: %v", err)
	}

	ok, err := bumped.Verify("password123", hash)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Error("Expected old hash to verify after parameter change")
	}
}

func TestPasswordService_VerifyMalformedHash(t *testing.T) {
	svc := newTestPasswordService(t)

	inputs := []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	}

	for _, input := range inputs {
		if _, err := svc.Verify("anything", input); err == nil {
			t.Errorf("Verify with hash %q expected error, got nil", input)
		}
	}
}

func TestPasswordService_VerifyDummyAlwaysFalse(t *testing.T) {
	svc := newTestPasswordService(t)

	if svc.VerifyDummy("this-password-is-never-accepted") {
		t.Error("VerifyDummy must always return false")
	}
	if svc.VerifyDummy("anything else") {
		t.Error("VerifyDummy must always return false")
	}
}
