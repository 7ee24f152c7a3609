package stt

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "transient provider error", err: &ProviderError{Transient: true, Err: errors.New("timeout")}, want: true},
		{name: "permanent provider error", err: &ProviderError{Transient: false, Err: errors.New("bad audio")}, want: false},
		{name: "wrapped transient", err: fmt.Errorf("submit: %w", &ProviderError{Transient: true, Err: errors.New("429")}), want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	transient := []int{408, 429, 500, 502, 503}
	for _, status := range transient {
		if !classifyStatus(status) {
			t.Errorf("classifyStatus(%d) = false, want true", status)
		}
	}

	permanent := []int{400, 401, 403, 404, 413, 415, 422}
	for _, status := range permanent {
		if classifyStatus(status) {
			t.Errorf("classifyStatus(%d) = true, want false", status)
		}
	}
}

func TestNewProviderFactory(t *testing.T) {
	t.Run("whisper", func(t *testing.T) {
		p, err := NewProvider(FactoryConfig{Provider: "whisper"})
		if err != nil {
			t.Fatalf("NewProvider() error = %v", err)
		}
		if _, ok := p.(*WhisperProvider); !ok {
			t.Errorf("NewProvider() = %T, want *WhisperProvider", p)
		}
	})

	t.Run("cloudflare requires credentials", func(t *testing.T) {
		if _, err := NewProvider(FactoryConfig{Provider: "cloudflare"}); err == nil {
			t.Error("NewProvider() error = nil, want credentials error")
		}
	})

	t.Run("cloudflare", func(t *testing.T) {
		p, err := NewProvider(FactoryConfig{
			Provider:            "cloudflare",
			CloudflareAccountID: "acct",
			CloudflareAPIToken:  "token",
		})
		if err != nil {
			t.Fatalf("NewProvider() error = %v", err)
		}
		if _, ok := p.(*CloudflareProvider); !ok {
			t.Errorf("NewProvider() = %T, want *CloudflareProvider", p)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := NewProvider(FactoryConfig{Provider: "deepgram"}); err == nil {
			t.Error("NewProvider() error = nil, want unsupported provider error")
		}
	})
}
