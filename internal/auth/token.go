package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medrec/internal/idgen"
)

const (
	DefaultDoctorTTL  = 24 * time.Hour
	DefaultPatientTTL = 7 * 24 * time.Hour

	issuer = "medrec"
)

var (
	ErrMissingSigningKey = errors.New("token signing key is not configured")
	ErrBadSignature      = errors.New("token signature is invalid")
	ErrExpired           = errors.New("token has expired")
	ErrMalformedToken    = errors.New("token is malformed")
)

// TokenConfig is loaded once at startup.
type TokenConfig struct {
	SigningKey []byte
	TTL        map[SubjectType]time.Duration
}

// IdentityToken is a signed token and the facts it carries.
type IdentityToken struct {
	Value       string      `json:"token"`
	ID          string      `json:"-"`
	SubjectID   string      `json:"-"`
	SubjectType SubjectType `json:"-"`
	IssuedAt    time.Time   `json:"issuedAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// Claims is the identity recovered from a valid token.
type Claims struct {
	SubjectID   string      `json:"id"`
	SubjectType SubjectType `json:"type"`
	TokenID     string      `json:"jti,omitempty"`
	IssuedAt    time.Time   `json:"iat"`
	ExpiresAt   time.Time   `json:"exp"`
}

type tokenClaims struct {
	Type SubjectType `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 identity tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenManager struct {
	key   []byte
	ttl   map[SubjectType]time.Duration
	now   func() time.Time
	newID func() (string, error)
}

func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	ttl := map[SubjectType]time.Duration{
		SubjectDoctor:  DefaultDoctorTTL,
		SubjectPatient: DefaultPatientTTL,
	}
	for t, d := range cfg.TTL {
		if d > 0 {
			ttl[t] = d
		}
	}
	return &TokenManager{
		key:   append([]byte(nil), cfg.SigningKey...),
		ttl:   ttl,
		now:   time.Now,
		newID: idgen.Generate,
	}, nil
}

// TTL returns the lifetime of tokens issued to subjects of type t.
func (m *TokenManager) TTL(t SubjectType) time.Duration {
	return m.ttl[t]
}

// IssueFor issues a token with the lifetime configured for the subject type.
func (m *TokenManager) IssueFor(id VerifiedIdentity) (IdentityToken, error) {
	return m.Issue(id, m.ttl[id.SubjectType])
}

func (m *TokenManager) Issue(id VerifiedIdentity, ttl time.Duration) (IdentityToken, error) {
	if id.SubjectID == "" || !id.SubjectType.Valid() {
		return IdentityToken{}, fmt.Errorf("issue token: invalid identity %q/%q", id.SubjectID, id.SubjectType)
	}
	if ttl <= 0 {
		return IdentityToken{}, fmt.Errorf("issue token: ttl must be positive, got %s", ttl)
	}
	jti, err := m.newID()
	if err != nil {
		return IdentityToken{}, fmt.Errorf("issue token: %w", err)
	}

	// jwt stores whole seconds.
	now := m.now().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := tokenClaims{
		Type: id.SubjectType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			Issuer:    issuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return IdentityToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IdentityToken{
		Value:       signed,
		ID:          jti,
		SubjectID:   id.SubjectID,
		SubjectType: id.SubjectType,
		IssuedAt:    now,
		ExpiresAt:   exp,
	}, nil
}

// Validate checks signature and expiry. The returned error is one of
// ErrBadSignature, ErrExpired or ErrMalformedToken.
func (m *TokenManager) Validate(raw string) (Claims, error) {
	tc := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, tc,
		func(*jwt.Token) (any, error) { return m.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return Claims{}, ErrBadSignature
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if tc.Subject == "" || !tc.Type.Valid() {
		return Claims{}, ErrMalformedToken
	}
	c := Claims{
		SubjectID:   tc.Subject,
		SubjectType: tc.Type,
		TokenID:     tc.ID,
	}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}
