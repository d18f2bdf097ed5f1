package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := FollowPayload{
		UserID:         uuid.New(),
		FollowerID:     uuid.New(),
		FollowersCount: 3,
		FollowingCount: 1,
	}

	event, err := NewEvent(UserFollowed, payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, UserFollowed, event.Type)
	assert.WithinDuration(t, time.Now(), event.OccurredAt, 2*time.Second)

	var decoded FollowPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent(ProductCreated, make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	mu sync.Mutex
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestNopEmitter(t *testing.T) {
	event, err := NewEvent(ServiceDeleted, ListingPayload{ID: uuid.New(), Key: "SRV-1"})
	require.NoError(t, err)
	assert.NoError(t, NopEmitter{}.EmitEvent(context.Background(), event))
}
