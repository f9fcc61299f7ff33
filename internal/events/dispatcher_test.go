package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var received []Event
	dispatcher.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		received = append(received, e)
		return nil
	})
	dispatcher.Subscribe(EventTicketEscalated, func(ctx context.Context, e Event) error {
		t.Fatal("handler for a different event type was invoked")
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 5})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, int64(5), received[0].TicketID)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var secondCalled bool
	dispatcher.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		secondCalled = true
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.True(t, secondCalled)
}
