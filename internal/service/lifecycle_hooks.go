package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/events"
)

// SessionRevoker terminates every session of an account.
type SessionRevoker interface {
	RevokeAccount(ctx context.Context, accountID string) error
}

// ImageRemover deletes a stored product image.
type ImageRemover interface {
	Remove(publicPath string) error
}

// LifecycleHooks reacts to committed domain changes. Deleting an account
// revokes its sessions; deleting a product removes its image.
type LifecycleHooks struct {
	dispatcher events.Dispatcher
	sessions   SessionRevoker
	images     ImageRemover
	logger     *zap.Logger
}

// NewLifecycleHooks creates the hooks.
func NewLifecycleHooks(dispatcher events.Dispatcher, sessions SessionRevoker, images ImageRemover, logger *zap.Logger) *LifecycleHooks {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleHooks{
		dispatcher: dispatcher,
		sessions:   sessions,
		images:     images,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (h *LifecycleHooks) RegisterHandlers() {
	if h.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventAccountCreated,
		events.EventAccountDeleted,
		events.EventProductCreated,
		events.EventProductDeleted,
		events.EventSettingChanged,
	} {
		h.dispatcher.Subscribe(t, h.trace)
	}
	h.dispatcher.Subscribe(events.EventAccountDeleted, h.handleAccountDeleted)
	h.dispatcher.Subscribe(events.EventProductDeleted, h.handleProductDeleted)
}

func (h *LifecycleHooks) trace(_ context.Context, event events.Event) error {
	h.logger.Debug("event dispatched",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject", event.Subject),
		zap.String("actor_id", event.Actor.AccountID))
	return nil
}

func (h *LifecycleHooks) handleAccountDeleted(ctx context.Context, event events.Event) error {
	if h.sessions == nil {
		return nil
	}
	if err := h.sessions.RevokeAccount(ctx, event.Subject); err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", event.Subject, err)
	}
	return nil
}

func (h *LifecycleHooks) handleProductDeleted(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ProductDeletedPayload)
	if !ok || payload.ImagePath == nil || h.images == nil {
		return nil
	}
	if err := h.images.Remove(*payload.ImagePath); err != nil {
		return fmt.Errorf("remove image %s: %w", *payload.ImagePath, err)
	}
	return nil
}
