package stt

import "fmt"

// FactoryConfig carries the provider selection and per-vendor credentials.
type FactoryConfig struct {
	Provider string // "whisper" or "cloudflare"

	WhisperBaseURL string
	WhisperAPIKey  string
	WhisperModel   string

	CloudflareAccountID string
	CloudflareAPIToken  string
	CloudflareModel     string
}

// NewProvider builds the configured transcription provider.
func NewProvider(cfg FactoryConfig) (Provider, error) {
	switch cfg.Provider {
	case "whisper":
		return NewWhisperProvider(cfg.WhisperBaseURL, cfg.WhisperAPIKey, cfg.WhisperModel), nil
	case "cloudflare":
		if cfg.CloudflareAccountID == "" || cfg.CloudflareAPIToken == "" {
			return nil, fmt.Errorf("stt: cloudflare provider requires account id and api token")
		}
		return NewCloudflareProvider(cfg.CloudflareAccountID, cfg.CloudflareAPIToken, cfg.CloudflareModel), nil
	default:
		return nil, fmt.Errorf("stt: unsupported provider: %s", cfg.Provider)
	}
}
