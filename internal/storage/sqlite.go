package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"video_digest/internal/model"
	"video_digest/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type configRow struct {
	ID         int64  `db:"id"`
	User       string `db:"user_json"`
	Tracks     string `db:"tracks_json"`
	Providers  string `db:"providers_json"`
	Progresses string `db:"progresses_json"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

const selectConfigs = `SELECT id, user_json, tracks_json, providers_json, progresses_json, created_at, updated_at
	FROM digest_configs`

// ListConfigs returns every config row in id order. A row that fails to
// decode aborts the listing with ErrConfigMalformed.
func (s *SQLite) ListConfigs(ctx context.Context) ([]model.DigestConfig, error) {
	var rows []configRow
	if err := s.db.SelectContext(ctx, &rows, selectConfigs+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("query configs: %w", err)
	}

	out := make([]model.DigestConfig, 0, len(rows))
	for _, r := range rows {
		cfg, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, *cfg)
	}
	return out, nil
}

// GetConfig returns a single config row.
func (s *SQLite) GetConfig(ctx context.Context, id int64) (*model.DigestConfig, error) {
	var r configRow
	err := s.db.GetContext(ctx, &r, selectConfigs+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return r.decode()
}

func (r configRow) decode() (*model.DigestConfig, error) {
	cfg := &model.DigestConfig{ID: r.ID}

	if strings.TrimSpace(r.User) == "" {
		return nil, fmt.Errorf("%w: config %d: empty user", ErrConfigMalformed, r.ID)
	}
	fields := []struct {
		name string
		raw  string
		dst  any
	}{
		{"user", r.User, &cfg.User},
		{"tracks", r.Tracks, &cfg.Tracks},
		{"providers", r.Providers, &cfg.Providers},
		{"progresses", r.Progresses, &cfg.Progresses},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("%w: config %d: %s: %v", ErrConfigMalformed, r.ID, f.name, err)
		}
	}

	cfg.CreatedAt, _ = time.Parse(timeLayout, r.CreatedAt)
	cfg.UpdatedAt, _ = time.Parse(timeLayout, r.UpdatedAt)
	return cfg, nil
}

// CreateConfig inserts a config row and populates its ID and timestamps.
func (s *SQLite) CreateConfig(ctx context.Context, cfg *model.DigestConfig) error {
	user, err := json.Marshal(cfg.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	tracks, err := marshalList(cfg.Tracks)
	if err != nil {
		return fmt.Errorf("encode tracks: %w", err)
	}
	providers, err := json.Marshal(cfg.Providers)
	if err != nil {
		return fmt.Errorf("encode providers: %w", err)
	}
	progresses, err := marshalList(cfg.Progresses)
	if err != nil {
		return fmt.Errorf("encode progresses: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO digest_configs (user_json, tracks_json, providers_json, progresses_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(user), tracks, string(providers), progresses, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert config: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	cfg.ID = id
	cfg.CreatedAt, _ = time.Parse(timeLayout, now)
	cfg.UpdatedAt = cfg.CreatedAt
	return nil
}

// UpdateProgresses overwrites the progress column of a config row.
func (s *SQLite) UpdateProgresses(ctx context.Context, id int64, progresses []model.Progress) error {
	data, err := marshalList(progresses)
	if err != nil {
		return fmt.Errorf("encode progresses: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE digest_configs SET progresses_json = ?, updated_at = ? WHERE id = ?`,
		data, time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("update progresses: %w", err)
	}
	return requireRow(res, id)
}

// ResetProgress drops the progress record of one track so the next run
// starts from the beginning.
func (s *SQLite) ResetProgress(ctx context.Context, id int64, track string) error {
	cfg, err := s.GetConfig(ctx, id)
	if err != nil {
		return err
	}
	kept := make([]model.Progress, 0, len(cfg.Progresses))
	found := false
	for _, p := range cfg.Progresses {
		if p.Name == track {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("progress of track %q: %w", track, ErrNotFound)
	}
	return s.UpdateProgresses(ctx, id, kept)
}

func marshalList[T any](v []T) (string, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	return string(data), err
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("config %d: %w", id, ErrNotFound)
	}
	return nil
}

type sheetRow struct {
	Sheet  string `db:"sheet"`
	Row    int    `db:"row_num"`
	ItemID string `db:"item_id"`
	Tags   string `db:"tags"`
	URL    string `db:"url"`
	Title  string `db:"title"`
}

// SheetRows returns the rows of a sheet ordered by row number.
func (s *SQLite) SheetRows(ctx context.Context, sheet string) ([]model.SheetRow, error) {
	var rows []sheetRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT sheet, row_num, item_id, tags, url, title FROM sheet_rows WHERE sheet = ? ORDER BY row_num`, sheet,
	)
	if err != nil {
		return nil, fmt.Errorf("query sheet rows: %w", err)
	}
	out := make([]model.SheetRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.SheetRow(r))
	}
	return out, nil
}

// ReplaceSheetRows rewrites a sheet. Row numbers are reassigned from 1 in
// the given order.
func (s *SQLite) ReplaceSheetRows(ctx context.Context, sheet string, rows []model.SheetRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, sheet); err != nil {
		return fmt.Errorf("delete sheet rows: %w", err)
	}
	for i, r := range rows {
		r.Sheet = sheet
		r.Row = i + 1
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, row_num, item_id, tags, url, title)
			 VALUES (:sheet, :row_num, :item_id, :tags, :url, :title)`,
			sheetRow(r),
		)
		if err != nil {
			return fmt.Errorf("insert sheet row %d: %w", r.Row, err)
		}
	}
	return tx.Commit()
}

type deliveryRow struct {
	ID         string `db:"id"`
	RunID      string `db:"run_id"`
	ConfigID   int64  `db:"config_id"`
	Subject    string `db:"subject"`
	Recipients string `db:"recipients"`
	TrackNames string `db:"track_names"`
	SentAt     string `db:"sent_at"`
}

// RecordDelivery stores a delivery. SentAt defaults to now.
func (s *SQLite) RecordDelivery(ctx context.Context, d *model.Delivery) error {
	if d.SentAt.IsZero() {
		d.SentAt = time.Now().UTC()
	}
	recipients, err := marshalList(d.Recipients)
	if err != nil {
		return fmt.Errorf("encode recipients: %w", err)
	}
	tracks, err := marshalList(d.TrackNames)
	if err != nil {
		return fmt.Errorf("encode track names: %w", err)
	}
	_, err = s.db.NamedExecContext(ctx,
		`INSERT INTO deliveries (id, run_id, config_id, subject, recipients, track_names, sent_at)
		 VALUES (:id, :run_id, :config_id, :subject, :recipients, :track_names, :sent_at)`,
		deliveryRow{
			ID:         d.ID,
			RunID:      d.RunID,
			ConfigID:   d.ConfigID,
			Subject:    d.Subject,
			Recipients: recipients,
			TrackNames: tracks,
			SentAt:     d.SentAt.UTC().Format(timeLayout),
		},
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// ListDeliveries returns the latest deliveries of a config, newest first.
func (s *SQLite) ListDeliveries(ctx context.Context, configID int64, limit int) ([]model.Delivery, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []deliveryRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, run_id, config_id, subject, recipients, track_names, sent_at
		 FROM deliveries WHERE config_id = ? ORDER BY sent_at DESC, id LIMIT ?`,
		configID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}

	out := make([]model.Delivery, 0, len(rows))
	for _, r := range rows {
		d := model.Delivery{
			ID:       r.ID,
			RunID:    r.RunID,
			ConfigID: r.ConfigID,
			Subject:  r.Subject,
		}
		if err := json.Unmarshal([]byte(r.Recipients), &d.Recipients); err != nil {
			return nil, fmt.Errorf("decode recipients of delivery %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.TrackNames), &d.TrackNames); err != nil {
			return nil, fmt.Errorf("decode track names of delivery %s: %w", r.ID, err)
		}
		d.SentAt, _ = time.Parse(timeLayout, r.SentAt)
		out = append(out, d)
	}
	return out, nil
}
