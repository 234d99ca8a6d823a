// Package events publishes record and login events to NATS.
package events

import "context"

const (
	TopicDoctorCreated  = "medrec.doctor.created"
	TopicDoctorUpdated  = "medrec.doctor.updated"
	TopicDoctorDeleted  = "medrec.doctor.deleted"
	TopicPatientCreated = "medrec.patient.created"
	TopicPatientUpdated = "medrec.patient.updated"
	TopicPatientDeleted = "medrec.patient.deleted"
	TopicLogin          = "medrec.auth.login"
)

// Publisher sends an event to a topic. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// RecordChanged is sent for create, update and delete. Changed lists the
// field names touched by an update, never their values.
type RecordChanged struct {
	Collection string   `json:"collection"`
	ID         int64    `json:"id"`
	Changed    []string `json:"changed,omitempty"`
	By         string   `json:"by,omitempty"`
}

// LoginSucceeded is sent after a token was issued.
type LoginSucceeded struct {
	SubjectID   string `json:"subject_id"`
	SubjectType string `json:"subject_type"`
	TokenID     string `json:"token_id"`
}
