package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), TopicDoctorCreated, RecordChanged{Collection: "doctors", ID: 1}))
	assert.NoError(t, p.Close())
}

func TestNewNATSPublisher_UnreachableServer(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1")
	assert.Error(t, err)
}
