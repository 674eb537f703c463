package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/memora-app/memora/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

type sqliteStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// profileRow is the relational shape of a Profile; sample_messages is stored
// as a JSON-encoded array.
type profileRow struct {
	ProfileID         string    `db:"profile_id"`
	Name              string    `db:"name"`
	Nickname          string    `db:"nickname"`
	Relationship      string    `db:"relationship"`
	AvatarURL         string    `db:"avatar_url"`
	PersonalityPrompt string    `db:"personality_prompt"`
	AnalysisStatus    string    `db:"analysis_status"`
	SampleMessages    string    `db:"sample_messages"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type turnRow struct {
	ID        int64  `db:"id"`
	ProfileID string `db:"profile_id"`
	Role      string `db:"role"`
	Text      string `db:"text"`
	TS        int64  `db:"ts"`
}

// NewSQLite opens (or creates) the SQLite database at dbPath, applies the
// embedded migrations, and returns a Store backed by it.
func NewSQLite(dbPath string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support concurrent writes, so max open conns = 1
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := applyMigrations(db.DB); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", dbPath)
	return &sqliteStore{
		db:     db,
		logger: logger.With("component", "store", "backend", "sqlite"),
	}, nil
}

// applyMigrations runs the embedded SQL migrations against db.
func applyMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver: %w", err)
	}

	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite3 database driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) SaveProfile(ctx context.Context, profileID string, profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("cannot save nil profile")
	}

	samples, err := json.Marshal(profile.SampleMessages)
	if err != nil {
		return fmt.Errorf("failed to encode sample messages: %w", err)
	}

	now := time.Now().UTC()
	row := profileRow{
		ProfileID:         profileID,
		Name:              profile.Name,
		Nickname:          profile.Nickname,
		Relationship:      profile.Relationship,
		AvatarURL:         profile.AvatarURL,
		PersonalityPrompt: profile.PersonalityPrompt,
		AnalysisStatus:    profile.AnalysisStatus,
		SampleMessages:    string(samples),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	query := `
        INSERT INTO profiles (profile_id, name, nickname, relationship, avatar_url,
                              personality_prompt, analysis_status, sample_messages,
                              created_at, updated_at)
        VALUES (:profile_id, :name, :nickname, :relationship, :avatar_url,
                :personality_prompt, :analysis_status, :sample_messages,
                :created_at, :updated_at)
        ON CONFLICT (profile_id) DO UPDATE SET
            name = excluded.name,
            nickname = excluded.nickname,
            relationship = excluded.relationship,
            avatar_url = excluded.avatar_url,
            personality_prompt = excluded.personality_prompt,
            analysis_status = excluded.analysis_status,
            sample_messages = excluded.sample_messages,
            updated_at = excluded.updated_at;
    `

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		s.logger.ErrorContext(ctx, "Error saving profile", "profile_id", profileID, "error", err)
		return fmt.Errorf("failed to save profile %q: %w", profileID, err)
	}

	s.logger.DebugContext(ctx, "Profile saved", "profile_id", profileID, "name", profile.Name)
	return nil
}

func (s *sqliteStore) GetProfile(ctx context.Context, profileID string) (*Profile, error) {
	var row profileRow
	query := `SELECT profile_id, name, nickname, relationship, avatar_url,
	                 personality_prompt, analysis_status, sample_messages,
	                 created_at, updated_at
	          FROM profiles WHERE profile_id = ?`

	err := s.db.GetContext(ctx, &row, query, profileID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "Profile not found", "profile_id", profileID)
		return nil, ErrProfileNotFound
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting profile", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("failed to get profile %q: %w", profileID, err)
	}

	profile := &Profile{
		Name:              row.Name,
		Nickname:          row.Nickname,
		Relationship:      row.Relationship,
		AvatarURL:         row.AvatarURL,
		PersonalityPrompt: row.PersonalityPrompt,
		AnalysisStatus:    row.AnalysisStatus,
	}
	if err := json.Unmarshal([]byte(row.SampleMessages), &profile.SampleMessages); err != nil {
		s.logger.WarnContext(ctx, "Failed to decode sample messages, leaving empty",
			"profile_id", profileID, "error", err)
	}
	return profile, nil
}

func (s *sqliteStore) ListProfiles(ctx context.Context) ([]ProfileSummary, error) {
	var rows []struct {
		ProfileID string `db:"profile_id"`
		Name      string `db:"name"`
	}
	query := `SELECT profile_id, name FROM profiles ORDER BY profile_id`

	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing profiles", "error", err)
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	summaries := make([]ProfileSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, ProfileSummary{ProfileID: r.ProfileID, Name: r.Name})
	}

	s.logger.DebugContext(ctx, "Listed profiles", "count", len(summaries))
	return summaries, nil
}

// AppendTurn is a single-row INSERT, which is atomic; row ids give the log
// its append order.
func (s *sqliteStore) AppendTurn(ctx context.Context, profileID string, turn Turn) error {
	query := `INSERT INTO chat_messages (profile_id, role, text, ts) VALUES (?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, profileID, turn.Role, turn.Text, turn.TS); err != nil {
		s.logger.ErrorContext(ctx, "Error appending chat turn", "profile_id", profileID, "role", turn.Role, "error", err)
		return fmt.Errorf("failed to append turn for %q: %w", profileID, err)
	}

	s.logger.DebugContext(ctx, "Chat turn appended", "profile_id", profileID, "role", turn.Role)
	return nil
}

func (s *sqliteStore) GetHistory(ctx context.Context, profileID string) ([]Turn, error) {
	var rows []turnRow
	query := `SELECT id, profile_id, role, text, ts
	          FROM chat_messages WHERE profile_id = ? ORDER BY id ASC`

	if err := s.db.SelectContext(ctx, &rows, query, profileID); err != nil {
		s.logger.ErrorContext(ctx, "Error getting chat history", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("failed to get chat history for %q: %w", profileID, err)
	}

	turns := make([]Turn, 0, len(rows))
	for _, r := range rows {
		turns = append(turns, Turn{Role: r.Role, Text: r.Text, TS: r.TS})
	}
	return turns, nil
}

// RunMaintenance executes VACUUM. SQLite requires it to run outside a
// transaction.
func (s *sqliteStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
