package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is the fixed lifetime of an issued session token.
// There is no revocation: a token stays valid for the full window even
// if the password changes in the meantime.
const TokenValidity = 30 * time.Minute

var (
	ErrTokenMalformed        = errors.New("malformed token")
	ErrTokenInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired          = errors.New("token expired")
)

// Identity is the claim set carried inside a session token. It is
// trusted as of issuance time and not re-checked against the user
// store on verification.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type claims struct {
	jwt.RegisteredClaims
	Identity
}

// TokenIssuer signs and verifies session tokens with a process-wide
// HS256 secret injected at construction.
type TokenIssuer struct {
	secret   []byte
	validity time.Duration
}

func NewTokenIssuer(secret []byte, validity time.Duration) *TokenIssuer {
	if validity <= 0 {
		validity = TokenValidity
	}
	return &TokenIssuer{secret: secret, validity: validity}
}

// Issue produces a signed, self-contained token for the identity,
// valid from now for the configured window.
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.validity)),
		},
		Identity: id,
	})
	return token.SignedString(t.secret)
}

// Verify parses and checks the token, returning the embedded identity.
// Failures are distinguished: ErrTokenMalformed if the string is not a
// parseable token, ErrTokenInvalidSignature if the signature does not
// match, ErrTokenExpired if the validity window has passed.
func (t *TokenIssuer) Verify(tokenString string) (Identity, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Identity{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Identity{}, ErrTokenInvalidSignature
		default:
			return Identity{}, ErrTokenInvalidSignature
		}
	}
	if !token.Valid {
		return Identity{}, ErrTokenInvalidSignature
	}
	return c.Identity, nil
}
