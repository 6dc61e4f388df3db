package service

import (
	"context"

	"github.com/shopfront-dev/storefront/internal/events"
)

type actorKey struct{}

// WithActor records the admin performing the current operation so that
// published events carry it.
func WithActor(ctx context.Context, accountID, username string) context.Context {
	return context.WithValue(ctx, actorKey{}, events.Actor{AccountID: accountID, Username: username})
}

func actorFrom(ctx context.Context) events.Actor {
	actor, _ := ctx.Value(actorKey{}).(events.Actor)
	return actor
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.Actor == (events.Actor{}) {
		event.Actor = actorFrom(ctx)
	}
	_ = dispatcher.Publish(ctx, event)
}
