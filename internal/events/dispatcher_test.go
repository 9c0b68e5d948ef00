package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var created, resolved int
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		created++
		return nil
	})
	d.Subscribe(EventTicketResolved, func(ctx context.Context, e Event) error {
		resolved++
		return nil
	})

	ctx := context.Background()
	if err := d.Publish(ctx, Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := d.Publish(ctx, Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if created != 2 || resolved != 0 {
		t.Fatalf("expected created=2 resolved=0, got created=%d resolved=%d", created, resolved)
	}
}

func TestDispatcherSwallowsHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()

	var second bool
	d.Subscribe(EventTicketAssigned, func(ctx context.Context, e Event) error {
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketAssigned, func(ctx context.Context, e Event) error {
		second = true
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventTicketAssigned}); err != nil {
		t.Fatalf("handler error must not surface: %v", err)
	}
	if !second {
		t.Fatalf("expected later handlers to run after a failure")
	}
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventFeedbackSubmitted}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}
