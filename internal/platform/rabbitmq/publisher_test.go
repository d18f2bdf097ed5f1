package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp.Publishing,
) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestPublisher_EmitEvent(t *testing.T) {
	event, err := events.NewEvent(events.UserFollowed, events.FollowPayload{
		UserID:         uuid.New(),
		FollowerID:     uuid.New(),
		FollowersCount: 1,
	})
	require.NoError(t, err)

	t.Run("routes by event type", func(t *testing.T) {
		ch := &mockChannel{}
		ch.On("PublishWithContext", mock.Anything, "marketplace.events", events.UserFollowed, false, false,
			mock.MatchedBy(func(msg amqp.Publishing) bool {
				var decoded events.Event
				if err := json.Unmarshal(msg.Body, &decoded); err != nil {
					return false
				}
				return msg.ContentType == "application/json" &&
					msg.DeliveryMode == amqp.Persistent &&
					msg.MessageId == event.ID.String() &&
					decoded.ID == event.ID
			})).Return(nil).Once()

		p := newPublisher(ch, "marketplace.events", nil)
		assert.NoError(t, p.EmitEvent(context.Background(), event))
		ch.AssertExpectations(t)
	})

	t.Run("publish failure is returned", func(t *testing.T) {
		ch := &mockChannel{}
		ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, false, false, mock.Anything).
			Return(errors.New("channel closed")).Once()

		p := newPublisher(ch, "marketplace.events", nil)
		err := p.EmitEvent(context.Background(), event)
		assert.ErrorContains(t, err, "channel closed")
	})

	t.Run("close closes the channel", func(t *testing.T) {
		ch := &mockChannel{}
		ch.On("Close").Return(nil).Once()

		p := newPublisher(ch, "marketplace.events", nil)
		assert.NoError(t, p.Close())
		ch.AssertExpectations(t)
	})
}
