// Package auth verifies login credentials and issues and validates the
// bearer tokens handed out after a successful login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SubjectType says which collection an identity belongs to.
type SubjectType string

const (
	SubjectDoctor  SubjectType = "doctor"
	SubjectPatient SubjectType = "patient"
)

func (t SubjectType) Valid() bool {
	return t == SubjectDoctor || t == SubjectPatient
}

var (
	// ErrCredentialNotFound is returned by a CredentialStore for an unknown identifier.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrInvalidCredentials covers both an unknown identifier and a wrong secret.
	ErrInvalidCredentials = errors.New("incorrect email or password")
)

// Credential is a stored identifier and its bcrypt hash.
type Credential struct {
	SubjectID   string
	SubjectType SubjectType
	Identifier  string
	SecretHash  string
}

// VerifiedIdentity is what a successful Verify returns. It never carries the hash.
type VerifiedIdentity struct {
	SubjectID   string      `json:"id"`
	SubjectType SubjectType `json:"type"`
	Identifier  string      `json:"email"`
}

// CredentialStore looks up credentials by normalized identifier.
type CredentialStore interface {
	FindCredential(ctx context.Context, identifier string) (Credential, error)
}

// NormalizeIdentifier trims and lower-cases an email address.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Verifier checks a secret against the hash kept in a CredentialStore.
type Verifier struct {
	compare func(hash, secret string) bool
	dummy   string
}

// NewVerifier precomputes a hash used to keep unknown identifiers as slow as
// wrong passwords.
func NewVerifier(h *Hasher) (*Verifier, error) {
	dummy, err := h.Hash("medrec-dummy-secret")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &Verifier{compare: h.Compare, dummy: dummy}, nil
}

func (v *Verifier) Verify(ctx context.Context, identifier, secret string, store CredentialStore) (VerifiedIdentity, error) {
	id := NormalizeIdentifier(identifier)
	if id == "" || secret == "" {
		v.compare(v.dummy, secret)
		return VerifiedIdentity{}, ErrInvalidCredentials
	}

	cred, err := store.FindCredential(ctx, id)
	if errors.Is(err, ErrCredentialNotFound) {
		v.compare(v.dummy, secret)
		return VerifiedIdentity{}, ErrInvalidCredentials
	}
	if err != nil {
		return VerifiedIdentity{}, err
	}

	if !v.compare(cred.SecretHash, secret) {
		return VerifiedIdentity{}, ErrInvalidCredentials
	}
	return VerifiedIdentity{
		SubjectID:   cred.SubjectID,
		SubjectType: cred.SubjectType,
		Identifier:  cred.Identifier,
	}, nil
}
