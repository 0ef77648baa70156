// Command metadata mirrors provider tags and titles with the curated sheets
// and imports or exports config rows.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/api/option"

	"video_digest/internal/app"
	"video_digest/internal/config"
	"video_digest/internal/metasync"
	"video_digest/internal/model"
	"video_digest/internal/provider"
	"video_digest/internal/storage"
)

var commands = [][2]string{
	{"download", "<youtube|googlePhotos> replace the provider sheet with provider details"},
	{"upload", "<youtube|googlePhotos> push edited sheet rows back (-apply to write)"},
	{"uploads-playlist", "print the uploads playlist id of the authorized channel"},
	{"shared-albums", "list shared Google Photos albums"},
	{"import", "<file.yaml|-> add config rows from YAML"},
	{"export", "write every config row as YAML to stdout"},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: metadata [-apply] <command> [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-17s %s\n", c[0], c[1])
	}
}

func main() {
	apply := flag.Bool("apply", false, "upload changes instead of only logging them")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := config.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log, args, *apply); err != nil {
		log.Error("metadata failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string, apply bool) error {
	store, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	syncer, err := newSyncer(ctx, cfg, store, log)
	if err != nil {
		return err
	}

	switch args[0] {
	case "download":
		kind, err := kindArg(args)
		if err != nil {
			return err
		}
		n, err := syncer.Download(ctx, kind)
		if err != nil {
			return err
		}
		fmt.Printf("%d rows written\n", n)
	case "upload":
		kind, err := kindArg(args)
		if err != nil {
			return err
		}
		changes, err := syncer.Upload(ctx, kind, apply)
		if err != nil {
			return err
		}
		verb := "would update"
		if apply {
			verb = "updated"
		}
		fmt.Printf("%s %d items\n", verb, len(changes))
	case "uploads-playlist":
		id, err := syncer.UploadsPlaylistID(ctx)
		if err != nil {
			return err
		}
		fmt.Println(id)
	case "shared-albums":
		albums, err := syncer.SharedAlbums(ctx)
		if err != nil {
			return err
		}
		for _, a := range albums {
			fmt.Printf("%s\t%s\t%s items\t%s\n", a.ID, a.Title, a.MediaItemsCount, a.ProductURL)
		}
	case "import":
		if len(args) < 2 {
			return errors.New("import needs a file name or -")
		}
		var r io.Reader = os.Stdin
		if args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			r = f
		}
		ids, err := syncer.Import(ctx, r)
		if err != nil {
			return err
		}
		fmt.Printf("imported config rows %v\n", ids)
	case "export":
		return syncer.Export(ctx, os.Stdout)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func kindArg(args []string) (model.ProviderKind, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("%s needs a provider: youtube or googlePhotos", args[0])
	}
	return model.ProviderKind(args[1]), nil
}

// newSyncer leaves the Google clients nil without credentials so import
// and export work offline.
func newSyncer(ctx context.Context, cfg *config.Config, store storage.Storage, log *slog.Logger) (*metasync.Syncer, error) {
	if !cfg.Google.Configured() {
		return metasync.New(store, nil, nil, log), nil
	}
	client := app.GoogleClient(ctx, cfg.Google, &http.Client{Timeout: cfg.HTTPTimeout})
	yt, err := provider.NewYouTube(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}
	photos := provider.NewPhotos(client, cfg.Google.PhotosBaseURL)
	return metasync.New(store, yt, photos, log), nil
}
