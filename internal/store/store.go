package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/ballot-interpreter/internal/interpret"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrNotFound          = errors.New("interpretation not found")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Summary is what is kept of one interpreted card.
type Summary struct {
	ID            uuid.UUID       `json:"id"`
	BallotStyleID string          `json:"ballot_style_id"`
	Result        string          `json:"result"`
	FrontError    string          `json:"front_error,omitempty"`
	BackError     string          `json:"back_error,omitempty"`
	Ovals         int             `json:"ovals"`
	Marked        int             `json:"marked"`
	Duration      time.Duration   `json:"duration"`
	Card          json.RawMessage `json:"card"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Summarize builds a summary of card. An oval counts as marked when its
// fill score is at least markThreshold.
func Summarize(card *interpret.Card, markThreshold float64) (*Summary, error) {
	data, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	s := &Summary{
		ID:            card.ID,
		BallotStyleID: card.BallotStyleID,
		Result:        "ok",
		Duration:      card.Duration,
		Card:          data,
		CreatedAt:     time.Now().UTC(),
	}
	for _, page := range []*interpret.Page{card.Front, card.Back} {
		if page == nil {
			continue
		}
		if page.Error != "" {
			s.Result = "error"
		}
		for _, m := range page.Marks {
			s.Ovals++
			if m.Score != nil && m.Score.FillScore >= markThreshold {
				s.Marked++
			}
		}
	}
	if card.Front != nil {
		s.FrontError = card.Front.Error
	}
	if card.Back != nil {
		s.BackError = card.Back.Error
	}
	return s, nil
}

// Store is a database of summaries.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to driver ("sqlite" or "postgres") at dsn and creates the
// schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Driver is the database driver name.
func (s *Store) Driver() string { return s.driver }

// rebind rewrites ? placeholders as $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save inserts a summary, replacing any with the same ID.
func (s *Store) Save(ctx context.Context, sum *Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM interpretation WHERE id = ?`), sum.ID.String()); err != nil {
		return fmt.Errorf("failed to replace interpretation: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO interpretation
			(id, ballot_style_id, result, front_error, back_error, ovals, marked, duration_ms, card, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sum.ID.String(), sum.BallotStyleID, sum.Result, sum.FrontError, sum.BackError,
		sum.Ovals, sum.Marked, sum.Duration.Milliseconds(), string(sum.Card), sum.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert interpretation: %w", err)
	}
	return tx.Commit()
}

const columns = `id, ballot_style_id, result, front_error, back_error, ovals, marked, duration_ms, card, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (*Summary, error) {
	var (
		sum        Summary
		id, card   string
		durationMS int64
		createdAt  int64
	)
	if err := row.Scan(&id, &sum.BallotStyleID, &sum.Result, &sum.FrontError, &sum.BackError,
		&sum.Ovals, &sum.Marked, &durationMS, &card, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("stored id %q: %w", id, err)
	}
	sum.ID = parsed
	sum.Duration = time.Duration(durationMS) * time.Millisecond
	sum.Card = json.RawMessage(card)
	sum.CreatedAt = time.Unix(0, createdAt).UTC()
	return &sum, nil
}

// Get returns one summary.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Summary, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+columns+` FROM interpretation WHERE id = ?`), id.String())
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read interpretation: %w", err)
	}
	return sum, nil
}

// List returns the most recent summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+columns+` FROM interpretation ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list interpretations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read interpretation: %w", err)
		}
		out = append(out, *sum)
	}
	return out, rows.Err()
}

// Stats counts stored interpretations by result.
type Stats struct {
	Total  int `json:"total"`
	Errors int `json:"errors"`
	Marked int `json:"marked"`
}

// Stats aggregates every stored summary.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN result = 'error' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(marked), 0)
		FROM interpretation`).Scan(&st.Total, &st.Errors, &st.Marked)
	if err != nil {
		return nil, fmt.Errorf("failed to count interpretations: %w", err)
	}
	return &st, nil
}
