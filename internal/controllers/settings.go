package controllers

import (
	"context"

	"github.com/amaumene/listarr/internal/models"
	"github.com/amaumene/listarr/internal/providers"
	"github.com/amaumene/listarr/internal/services/overseerr"
)

// Requester submits items to the downstream request service
type Requester interface {
	RequestItems(ctx context.Context, items []models.MediaItem) *overseerr.RequestResult
}

// SettingsResolver hands the processor the per-owner configuration it
// consumes but never persists. The settings subsystem behind it is an
// external collaborator.
type SettingsResolver interface {
	ProviderCredentials(userID uint64, kind models.ProviderKind) (providers.Credentials, bool)
	Downstream(userID uint64) (Requester, bool)
}

// StaticSettings is a SettingsResolver backed by process configuration:
// every owner shares one credential set and one downstream client.
type StaticSettings struct {
	credentials map[models.ProviderKind]providers.Credentials
	requester   Requester
}

// NewStaticSettings creates a configuration-backed settings resolver
func NewStaticSettings(credentials map[models.ProviderKind]providers.Credentials, requester Requester) *StaticSettings {
	return &StaticSettings{
		credentials: credentials,
		requester:   requester,
	}
}

// ProviderCredentials returns the credential bundle for a provider kind
func (s *StaticSettings) ProviderCredentials(_ uint64, kind models.ProviderKind) (providers.Credentials, bool) {
	creds, ok := s.credentials[kind]
	if !ok || (creds.APIKey == "" && creds.ClientID == "") {
		return providers.Credentials{}, false
	}
	return creds, true
}

// Downstream returns the request service client
func (s *StaticSettings) Downstream(_ uint64) (Requester, bool) {
	if s.requester == nil {
		return nil, false
	}
	return s.requester, true
}
