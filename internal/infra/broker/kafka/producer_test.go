package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSendsKeyPayloadAndHeaders(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "booking.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "b-1" {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "content-type" {
			return errors.New("headers not sorted or missing")
		}
		return nil
	})
	p := NewProducerFrom(mock)

	err := p.Publish(context.Background(), "booking.events.v1", "b-1", []byte(`{"ok":true}`), map[string]string{
		"event-name":   "booking.created",
		"content-type": "application/cloudevents+json",
	})

	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublishReturnsBrokerError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerFrom(mock)

	err := p.Publish(context.Background(), "booking.events.v1", "b-1", []byte(`{}`), nil)

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, "booking.events.v1", "b-1", []byte(`{}`), nil)

	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, p.Close())
}
