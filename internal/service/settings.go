package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront-checkout-demo/internal/paypalsdk"
	"storefront-checkout-demo/internal/repository"
)

// ClientIDKey is the storage key of the saved PayPal client id.
const ClientIDKey = "paypal-client-id"

type SettingsService interface {
	SaveClientID(ctx context.Context, sessionID, raw string) (string, error)
	ClientID(ctx context.Context, sessionID string) (string, error)
	ScriptURL(ctx context.Context, sessionID string, debug bool) (string, error)
}

type settingsServiceImpl struct {
	repo     repository.KVRepository
	currency string
	log      *logrus.Entry
}

func NewSettingsService(repo repository.KVRepository, currency string, log *logrus.Logger) SettingsService {
	return &settingsServiceImpl{
		repo:     repo,
		currency: currency,
		log:      log.WithField("component", "settings"),
	}
}

// SaveClientID validates raw and stores the trimmed id. It returns the
// stored value.
func (s *settingsServiceImpl) SaveClientID(ctx context.Context, sessionID, raw string) (string, error) {
	if v := paypalsdk.ValidateClientID(raw); !v.OK {
		return "", &ValidationError{Field: "client_id", Reason: v.Reason}
	}

	id := strings.TrimSpace(raw)
	data, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("encode client id: %w", err)
	}
	if err := s.repo.Set(ctx, sessionID, ClientIDKey, data); err != nil {
		return "", fmt.Errorf("save client id: %w", err)
	}
	return id, nil
}

// ClientID returns the saved id, or "" when none was saved.
func (s *settingsServiceImpl) ClientID(ctx context.Context, sessionID string) (string, error) {
	data, err := s.repo.Get(ctx, sessionID, ClientIDKey)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load client id: %w", err)
	}

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("stored client id is corrupt, ignoring it")
		return "", nil
	}
	return id, nil
}

func (s *settingsServiceImpl) ScriptURL(ctx context.Context, sessionID string, debug bool) (string, error) {
	id, err := s.ClientID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if v := paypalsdk.ValidateClientID(id); !v.OK {
		return "", &ValidationError{Field: "client_id", Reason: v.Reason}
	}

	return paypalsdk.BuildScriptURL(paypalsdk.ScriptOptions{
		ClientID: id,
		Currency: s.currency,
		Debug:    debug,
	}), nil
}
