package services

import (
	"context"
	"errors"
	"log/slog"

	"medrec/internal/auth"
	"medrec/internal/domain"
	"medrec/internal/events"
	"medrec/internal/logging"
)

const msgBadLogin = "Incorrect email or password"

// LoginResult is a verified identity and the token issued for it.
type LoginResult struct {
	Identity auth.VerifiedIdentity
	Token    auth.IdentityToken
}

type AuthService struct {
	Verifier  *auth.Verifier
	Tokens    *auth.TokenManager
	Stores    map[auth.SubjectType]auth.CredentialStore
	Events    events.Publisher
	Log       *slog.Logger
	RequestID string
}

// Login checks email and password against the store for st and issues a
// token. Unknown emails and wrong passwords fail the same way.
func (s AuthService) Login(ctx context.Context, st auth.SubjectType, email, password string) (LoginResult, error) {
	store, ok := s.Stores[st]
	if !ok {
		return LoginResult{}, domain.ValidationError{Field: "type", Msg: "unknown account type"}
	}

	log := loggerOr(s.Log)
	id, err := s.Verifier.Verify(ctx, email, password, store)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		logging.Event(log, s.RequestID, "auth", "login", "login rejected", "subject_type", st)
		return LoginResult{}, domain.UnauthorizedError{Msg: msgBadLogin, Err: err}
	}
	if err != nil {
		return LoginResult{}, err
	}

	tok, err := s.Tokens.IssueFor(id)
	if err != nil {
		return LoginResult{}, domain.InternalError{Msg: "could not issue token", Err: err}
	}

	logging.Event(log, s.RequestID, "auth", "login", "login succeeded",
		"subject_type", st, "subject_id", id.SubjectID, "token_id", tok.ID)
	publish(ctx, s.Events, log, events.TopicLogin, events.LoginSucceeded{
		SubjectID:   id.SubjectID,
		SubjectType: string(id.SubjectType),
		TokenID:     tok.ID,
	})
	return LoginResult{Identity: id, Token: tok}, nil
}

// Authenticate validates a bearer token. Callers only see a generic
// unauthorized error; the precise reason goes to the log.
func (s AuthService) Authenticate(raw string) (auth.Claims, error) {
	claims, err := s.Tokens.Validate(raw)
	if err == nil {
		return claims, nil
	}

	reason := "malformed"
	switch {
	case errors.Is(err, auth.ErrExpired):
		reason = "expired"
	case errors.Is(err, auth.ErrBadSignature):
		reason = "bad_signature"
	}
	loggerOr(s.Log).Debug("token rejected", "request_id", s.RequestID, "reason", reason)
	return auth.Claims{}, domain.UnauthorizedError{Msg: "invalid or expired token", Err: err}
}
