package services

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "prompter"

// ErrAPIKeyNotFound is returned when no key is stored for a provider.
var ErrAPIKeyNotFound = errors.New("API key not found")

func GetOS() string {
	return runtime.GOOS
}

// KeyringOptions selects the secret store. An empty Backend lets the keyring
// library pick the platform default.
type KeyringOptions struct {
	Backend      string
	FileDir      string
	FilePassword string
}

// OpenKeyring opens the platform keyring used for provider API keys.
func OpenKeyring(opts KeyringOptions) (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:              serviceName,
		KeychainTrustApplication: true,
		FileDir:                  opts.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(opts.FilePassword),
	}
	if cfg.FileDir == "" {
		cfg.FileDir = "~/.prompter/keys"
	}
	if b := strings.TrimSpace(opts.Backend); b != "" {
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(b)}
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return ring, nil
}

type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

func (s *KeyringService) StoreApiKey(provider string, apiKey []byte) error {
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider is required")
	}

	return s.ring.Set(keyring.Item{
		Key:         provider,
		Data:        apiKey,
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by Prompter",
	})
}

func (s *KeyringService) GetApiKey(provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", errors.New("provider is required")
	}
	item, err := s.ring.Get(provider)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("%s: %w", provider, ErrAPIKeyNotFound)
		}
		return "", err
	}
	return string(item.Data), nil
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider is required")
	}
	if err := s.ring.Remove(provider); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", provider, ErrAPIKeyNotFound)
		}
		return err
	}
	return nil
}

// ListApiKeys describes the stored keys without revealing them.
func (s *KeyringService) ListApiKeys() ([]map[string]string, error) {
	providers, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}
	sort.Strings(providers)

	results := make([]map[string]string, 0, len(providers))
	for _, provider := range providers {
		results = append(results, map[string]string{
			"provider":    provider,
			"label":       provider + " API key",
			"description": "API key for " + provider + " used by Prompter",
		})
	}
	return results, nil
}
