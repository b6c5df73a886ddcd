package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour)
	id := Identity{UserID: "user-123", Username: "alice", Role: "user"}

	tok, err := issuer.Issue(id)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	got, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got != id {
		t.Fatalf("identity mismatch: got %+v want %+v", got, id)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), time.Hour)
	// issue with a window already in the past
	expiredIssuer := &TokenIssuer{secret: []byte("secret"), validity: -1 * time.Second}

	tok, err := expiredIssuer.Issue(Identity{UserID: "u1", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = issuer.Verify(tok)
	if err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenIssuer([]byte("right-secret"), time.Hour).Issue(Identity{UserID: "u2"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewTokenIssuer([]byte("wrong-secret"), time.Hour).Verify(tok)
	if err != ErrTokenInvalidSignature {
		t.Fatalf("expected ErrTokenInvalidSignature, got %v", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), time.Hour)
	tok, err := issuer.Issue(Identity{UserID: "u3", Username: "bob", Role: "user"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// flip a byte in the payload segment
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	payload := []byte(parts[1])
	if payload[3] == 'A' {
		payload[3] = 'B'
	} else {
		payload[3] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := issuer.Verify(tampered); err == nil {
		t.Fatalf("expected error for tampered token, got nil")
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), time.Hour)

	for _, bad := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := issuer.Verify(bad); err != ErrTokenMalformed {
			t.Fatalf("token %q: expected ErrTokenMalformed, got %v", bad, err)
		}
	}
}

func TestNewTokenIssuer_DefaultValidity(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), 0)
	if issuer.validity != TokenValidity {
		t.Fatalf("expected default validity %v, got %v", TokenValidity, issuer.validity)
	}
}
