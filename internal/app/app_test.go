package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"video_digest/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStoreCreatesDirectory(t *testing.T) {
	cfg := &config.Config{DatabasePath: filepath.Join(t.TempDir(), "nested", "digest.db")}

	store, err := OpenStore(cfg)
	if err != nil {
		t.Fatalf("OpenStore() error: %v", err)
	}
	defer func() { _ = store.Close() }()

	configs, err := store.ListConfigs(context.Background())
	if err != nil {
		t.Fatalf("ListConfigs() error: %v", err)
	}
	if len(configs) != 0 {
		t.Errorf("ListConfigs() = %d rows, want 0", len(configs))
	}
}

func TestMailer(t *testing.T) {
	tests := []struct {
		name    string
		smtp    config.SMTP
		wantNil bool
		wantErr bool
	}{
		{name: "not configured", wantNil: true},
		{name: "missing from", smtp: config.SMTP{Host: "smtp.example.com", Port: 587}, wantErr: true},
		{name: "configured", smtp: config.SMTP{Host: "smtp.example.com", Port: 587, From: "digest@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Mailer(&config.Config{SMTP: tt.smtp}, discardLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (m == nil) != tt.wantNil {
				t.Errorf("Mailer() = %v, want nil %v", m, tt.wantNil)
			}
		})
	}
}

func TestGatewayWithoutGoogle(t *testing.T) {
	gw, err := Gateway(context.Background(), &config.Config{HTTPTimeout: time.Second}, discardLogger())
	if err != nil {
		t.Fatalf("Gateway() error: %v", err)
	}
	if gw.YouTube != nil || gw.Photos != nil {
		t.Error("google clients should be disabled without credentials")
	}
	if gw.Vimeo == nil {
		t.Error("vimeo client should always be set")
	}
}
