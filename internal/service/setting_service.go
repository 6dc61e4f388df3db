package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/domain"
	"github.com/shopfront-dev/storefront/internal/events"
	"github.com/shopfront-dev/storefront/internal/repository"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// SettingService reads and updates the storefront contact settings.
type SettingService struct {
	settings     repository.SettingRepository
	contactEmail string
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// NewSettingService builds the service. contactEmail is static configuration
// shown alongside the editable settings.
func NewSettingService(settings repository.SettingRepository, contactEmail string, dispatcher events.Dispatcher, logger *zap.Logger) *SettingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingService{
		settings:     settings,
		contactEmail: contactEmail,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// NormalizeContactMethod coerces any value other than exactly "sms" to email.
func NormalizeContactMethod(raw string) domain.ContactMethod {
	if raw == string(domain.ContactMethodSMS) {
		return domain.ContactMethodSMS
	}
	return domain.ContactMethodEmail
}

// ContactSettings returns the current settings, defaulting missing keys.
func (s *SettingService) ContactSettings(ctx context.Context) (*domain.ContactSettings, error) {
	method, _, err := s.settings.Get(ctx, domain.SettingContactMethod)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	phone, _, err := s.settings.Get(ctx, domain.SettingContactPhone)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &domain.ContactSettings{
		Method: NormalizeContactMethod(method),
		Email:  s.contactEmail,
		Phone:  phone,
	}, nil
}

// SetContactMethod stores the normalized contact method and returns it.
func (s *SettingService) SetContactMethod(ctx context.Context, raw string) (domain.ContactMethod, error) {
	method := NormalizeContactMethod(raw)
	if err := s.set(ctx, domain.SettingContactMethod, string(method)); err != nil {
		return "", err
	}
	return method, nil
}

// SetContactPhone stores the contact phone as given. Empty clears it.
func (s *SettingService) SetContactPhone(ctx context.Context, phone string) (string, error) {
	if err := s.set(ctx, domain.SettingContactPhone, phone); err != nil {
		return "", err
	}
	return phone, nil
}

// EnsureDefaults inserts default values for keys that have never been set.
func (s *SettingService) EnsureDefaults(ctx context.Context) error {
	defaults := map[string]string{
		domain.SettingContactMethod: string(domain.ContactMethodEmail),
		domain.SettingContactPhone:  "",
	}
	for key, value := range defaults {
		if err := s.settings.SetIfAbsent(ctx, key, value); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}

func (s *SettingService) set(ctx context.Context, key, value string) error {
	if err := s.settings.Set(ctx, key, value); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("setting updated", zap.String("key", key))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventSettingChanged,
		Subject: key,
		Payload: events.SettingChangedPayload{Key: key, Value: value},
	})
	return nil
}
