package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 24 * time.Hour

// Validation failures are distinguished for observability; callers
// collapse all three into a single authentication failure at the edge.
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrExpired          = errors.New("token has expired")
	ErrSignatureInvalid = errors.New("token signature is invalid")
)

// Claims are the validated contents of a session token.
type Claims struct {
	AccountID string
	Email     string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Issuer issues and validates signed, self-contained session tokens
// (HS256 JWTs). The secret is fixed at process start and never rotated
// at runtime; there is no revocation list, the short TTL bounds the
// blast radius of a leaked token.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token carrying the account id and email with an
// absolute expiry of now + TTL.
func (i *Issuer) Issue(accountID, email string) (string, error) {
	now := i.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Validate checks the signature and expiry of a raw token and returns
// its claims. Failures are reported as ErrMalformed, ErrExpired or
// ErrSignatureInvalid.
func (i *Issuer) Validate(raw string) (Claims, error) {
	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(raw, &parsed,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrSignatureInvalid
		default:
			return Claims{}, ErrMalformed
		}
	}

	return Claims{
		AccountID: parsed.Subject,
		Email:     parsed.Email,
	}, nil
}
