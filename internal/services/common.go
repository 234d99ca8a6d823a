package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"medrec/internal/auth"
	"medrec/internal/domain"
	"medrec/internal/events"
	"medrec/internal/logging"
	"medrec/internal/query"
)

// Collection is the read side every store exposes to the query engine.
type Collection interface {
	Collection() query.CollectionQuery
}

// list parses raw query parameters and runs them against src.
func list(ctx context.Context, raw map[string]string, opts query.Options, src Collection) ([]query.Record, error) {
	spec, err := query.Parse(raw, opts)
	if err != nil {
		return nil, err
	}
	return query.Execute(ctx, spec, src.Collection())
}

// getByID reads one record through the query engine so the same hidden
// fields are stripped as on list.
func getByID(ctx context.Context, resource string, id int64, opts query.Options, src Collection) (query.Record, error) {
	rows, err := list(ctx, map[string]string{"id": strconv.FormatInt(id, 10), "limit": "1"}, opts, src)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NotFoundError{Resource: resource}
	}
	return rows[0], nil
}

// publish sends an event and only logs when it fails.
func publish(ctx context.Context, pub events.Publisher, log *slog.Logger, topic string, ev any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, ev); err != nil {
		log.Warn("event publish failed", "topic", topic, "error", err)
	}
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return logging.Discard()
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return domain.ValidationError{Field: field, Msg: "is required"}
	}
	return nil
}

// validPassword rejects empty secrets and ones bcrypt cannot hash.
func validPassword(v string) error {
	if err := required("password", v); err != nil {
		return err
	}
	if len(v) > auth.MaxSecretBytes {
		return domain.ValidationError{Field: "password", Msg: fmt.Sprintf("must be at most %d bytes", auth.MaxSecretBytes)}
	}
	return nil
}

func validEmail(v string) error {
	at := strings.Index(v, "@")
	if at <= 0 || at == len(v)-1 || strings.ContainsAny(v, " \t") {
		return domain.ValidationError{Field: "email", Msg: "is not a valid email address"}
	}
	return nil
}

func validDate(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return domain.ValidationError{Field: field, Msg: "must be YYYY-MM-DD", Err: err}
	}
	return nil
}
