package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/itamcloud/itam-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	acked    bool
	nacked   bool
	requeue  bool
	rejected bool
}

func (a *recordingAck) Ack(bool) error {
	a.acked = true
	return nil
}

func (a *recordingAck) Nack(_ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAck) Reject(requeue bool) error {
	a.rejected = true
	a.requeue = requeue
	return nil
}

func newTestConsumer() *Consumer {
	return &Consumer{
		queueName: "test",
		handlers:  make(map[string]MessageHandler),
		logger:    logger.Nop(),
	}
}

func encode(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", data)
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func TestDispatch_HandlerSucceeds(t *testing.T) {
	c := newTestConsumer()

	var got HealthScoreRequestedEvent
	var corr string
	c.RegisterHandler(EventHealthScoreRequested, func(ctx context.Context, e *Event) error {
		corr = CorrelationID(ctx)
		return e.UnmarshalData(&got)
	})

	ack := &recordingAck{}
	body := encode(t, EventHealthScoreRequested, HealthScoreRequestedEvent{OrganizationID: "org-1"})
	c.Dispatch(context.Background(), body, false, ack)

	assert.True(t, ack.acked)
	assert.Equal(t, "org-1", got.OrganizationID)
	assert.Equal(t, "corr-1", corr)
}

func TestDispatch_MalformedBodyIsRejected(t *testing.T) {
	c := newTestConsumer()
	ack := &recordingAck{}

	c.Dispatch(context.Background(), []byte("{not json"), false, ack)

	assert.True(t, ack.rejected)
	assert.False(t, ack.requeue)
}

func TestDispatch_UnknownTypeIsAcked(t *testing.T) {
	c := newTestConsumer()
	ack := &recordingAck{}

	c.Dispatch(context.Background(), encode(t, "something.else", nil), false, ack)

	assert.True(t, ack.acked)
}

func TestDispatch_FailureRequeuesOnceThenDeadLetters(t *testing.T) {
	c := newTestConsumer()
	c.RegisterHandler(EventHealthScoreRequested, func(context.Context, *Event) error {
		return errors.New("database unavailable")
	})
	body := encode(t, EventHealthScoreRequested, HealthScoreRequestedEvent{OrganizationID: "org-1"})

	first := &recordingAck{}
	c.Dispatch(context.Background(), body, false, first)
	assert.True(t, first.nacked)
	assert.True(t, first.requeue)

	second := &recordingAck{}
	c.Dispatch(context.Background(), body, true, second)
	assert.True(t, second.rejected)
	assert.False(t, second.requeue)
}
