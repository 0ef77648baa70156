// Package app wires the configured collaborators shared by the commands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"video_digest/internal/config"
	"video_digest/internal/digest"
	"video_digest/internal/notify"
	"video_digest/internal/provider"
	"video_digest/internal/storage"
)

// PhotosScope grants read and edit access to the Google Photos library.
const PhotosScope = "https://www.googleapis.com/auth/photoslibrary"

// OpenStore opens the SQLite database, creating its directory if needed.
func OpenStore(cfg *config.Config) (*storage.SQLite, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	return store, nil
}

// Gateway builds the provider clients. YouTube and Google Photos are left
// nil without Google credentials; their queries then fail as unavailable.
func Gateway(ctx context.Context, cfg *config.Config, log *slog.Logger) (provider.Gateway, error) {
	plain := &http.Client{Timeout: cfg.HTTPTimeout}
	gw := provider.Gateway{Vimeo: provider.NewVimeo(plain)}

	if !cfg.Google.Configured() {
		log.Warn("google credentials are not set, youtube and photos are disabled")
		return gw, nil
	}

	client := GoogleClient(ctx, cfg.Google, plain)
	yt, err := provider.NewYouTube(ctx, option.WithHTTPClient(client))
	if err != nil {
		return gw, err
	}
	gw.YouTube = yt
	gw.Photos = provider.NewPhotos(client, cfg.Google.PhotosBaseURL)
	return gw, nil
}

// GoogleClient returns an HTTP client authorized with the stored refresh
// token. base carries the timeout of token refreshes.
func GoogleClient(ctx context.Context, g config.Google, base *http.Client) *http.Client {
	conf := &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeForceSslScope, PhotosScope},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := conf.Client(ctx, &oauth2.Token{RefreshToken: g.RefreshToken})
	client.Timeout = base.Timeout
	return client
}

// Mailer returns the SMTP sender, or nil when SMTP_HOST is unset.
func Mailer(cfg *config.Config, log *slog.Logger) (digest.Mailer, error) {
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP_HOST is not set, mail delivery is disabled")
		return nil, nil
	}
	if err := cfg.RequireSMTP(); err != nil {
		return nil, err
	}
	sender, err := notify.NewSMTPSender(cfg.SMTP)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

// Runner assembles the digest runner. chat may be nil.
func Runner(ctx context.Context, cfg *config.Config, store storage.Storage, chat digest.ChatSender, log *slog.Logger) (*digest.Runner, error) {
	gw, err := Gateway(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	renderer, err := notify.NewRenderer()
	if err != nil {
		return nil, err
	}
	mailer, err := Mailer(cfg, log)
	if err != nil {
		return nil, err
	}
	return digest.New(store, gw, renderer, mailer, chat, log, digest.Options{
		SubjectPrefix:  cfg.SubjectPrefix,
		PointerBaseURL: cfg.PointerBaseURL,
		Location:       cfg.Location(),
		DryRun:         cfg.DryRun,
	}), nil
}
