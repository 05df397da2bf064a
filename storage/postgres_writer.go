package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"travel-scout/models"
	"travel-scout/utils"

	_ "github.com/lib/pq"
)

// PostgresWriter stores flight lookups and recommendation results in PostgreSQL
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter creates a new PostgresWriter and pings the DB
func NewPostgresWriter(ctx context.Context, connStr string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return NewPostgresWriterFromDB(db, logger), nil
}

// NewPostgresWriterFromDB wraps an already opened database
func NewPostgresWriterFromDB(db *sql.DB, logger *utils.Logger) *PostgresWriter {
	return &PostgresWriter{db: db, logger: logger}
}

// CreateTables creates the history tables if they don't exist, with indexes
func (w *PostgresWriter) CreateTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS flight_lookups (
		id             UUID         PRIMARY KEY,
		origin         CHAR(3)      NOT NULL,
		destination    CHAR(3)      NOT NULL,
		departure_date DATE         NOT NULL,
		return_date    DATE         NOT NULL,
		passengers     JSONB        NOT NULL,
		target_url     TEXT         NOT NULL,
		outcome        VARCHAR(20)  NOT NULL,
		booking_url    TEXT,
		reason         TEXT,
		duration_ms    BIGINT       NOT NULL DEFAULT 0,
		created_at     TIMESTAMP    NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_flight_lookups_created ON flight_lookups (created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_flight_lookups_route   ON flight_lookups (origin, destination);

	CREATE TABLE IF NOT EXISTS recommendations (
		id              SERIAL PRIMARY KEY,
		request_id      UUID          NOT NULL,
		rank            INTEGER       NOT NULL,
		listing_id      TEXT          NOT NULL,
		name            TEXT,
		url             TEXT,
		price           NUMERIC(10,2),
		rating          NUMERIC(4,2),
		score           DOUBLE PRECISION NOT NULL,
		sentiment_score INTEGER       NOT NULL DEFAULT 0,
		keyword_matches INTEGER       NOT NULL DEFAULT 0,
		review_count    INTEGER       NOT NULL DEFAULT 0,
		error           TEXT,
		created_at      TIMESTAMP     NOT NULL DEFAULT NOW(),
		UNIQUE (request_id, listing_id)
	);

	CREATE INDEX IF NOT EXISTS idx_recommendations_listing ON recommendations (listing_id);
	`
	if _, err := w.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	w.logger.Info("Tables 'flight_lookups' and 'recommendations' are ready")
	return nil
}

// SaveFlightLookup inserts one lookup record
func (w *PostgresWriter) SaveFlightLookup(ctx context.Context, l models.FlightLookup) error {
	passengers, err := json.Marshal(l.Params.Passengers)
	if err != nil {
		return fmt.Errorf("failed to encode passengers: %w", err)
	}

	_, err = w.db.ExecContext(ctx, `
		INSERT INTO flight_lookups (id, origin, destination, departure_date, return_date, passengers,
			target_url, outcome, booking_url, reason, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		l.ID,
		l.Params.Origin,
		l.Params.Destination,
		l.Params.DepartureDate,
		l.Params.ReturnDate,
		string(passengers),
		l.TargetURL,
		l.Outcome,
		nullString(l.BookingURL),
		nullString(l.Reason),
		l.Duration.Milliseconds(),
		l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert flight lookup: %w", err)
	}
	return nil
}

// RecentLookups returns up to limit lookups, newest first
func (w *PostgresWriter) RecentLookups(ctx context.Context, limit int) ([]models.FlightLookup, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, origin, destination, departure_date, return_date, passengers,
			target_url, outcome, booking_url, reason, duration_ms, created_at
		FROM flight_lookups
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight lookups: %w", err)
	}
	defer rows.Close()

	lookups := []models.FlightLookup{}
	for rows.Next() {
		var (
			l                  models.FlightLookup
			departure, ret     time.Time
			passengers         []byte
			bookingURL, reason sql.NullString
			durationMs         int64
		)
		if err := rows.Scan(&l.ID, &l.Params.Origin, &l.Params.Destination, &departure, &ret, &passengers,
			&l.TargetURL, &l.Outcome, &bookingURL, &reason, &durationMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flight lookup: %w", err)
		}
		if err := json.Unmarshal(passengers, &l.Params.Passengers); err != nil {
			w.logger.Warn("Skipping passengers of lookup %s: %v", l.ID, err)
		}
		l.Params.DepartureDate = departure.Format("2006-01-02")
		l.Params.ReturnDate = ret.Format("2006-01-02")
		l.BookingURL = bookingURL.String
		l.Reason = reason.String
		l.Duration = time.Duration(durationMs) * time.Millisecond
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flight lookups: %w", err)
	}
	return lookups, nil
}

// SaveRecommendations inserts ranked listings in a single transaction, skipping duplicates
func (w *PostgresWriter) SaveRecommendations(ctx context.Context, requestID string, ranked []models.RankedListing) (err error) {
	if len(ranked) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendations (request_id, rank, listing_id, name, url, price, rating, score,
			sentiment_score, keyword_matches, review_count, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (request_id, listing_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, r := range ranked {
		var price sql.NullFloat64
		if amount, ok := r.Listing.PriceAmount(); ok {
			price = sql.NullFloat64{Float64: amount, Valid: true}
		}
		var rating sql.NullFloat64
		if r.Listing.Rating != nil {
			rating = sql.NullFloat64{Float64: *r.Listing.Rating, Valid: true}
		}

		if _, execErr := stmt.ExecContext(ctx,
			requestID,
			i+1,
			r.Listing.ID,
			r.Listing.Name,
			r.Listing.URL,
			price,
			rating,
			r.Score,
			r.Breakdown.SentimentScore,
			r.Breakdown.KeywordMatches,
			r.Breakdown.ReviewCount,
			nullString(r.Error),
		); execErr != nil {
			w.logger.Warn("Skipping insert for listing '%s': %v", r.Listing.ID, execErr)
			continue
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Info("Stored %d/%d ranked listings for request %s", inserted, len(ranked), requestID)
	return nil
}

// Close closes the database connection
func (w *PostgresWriter) Close() {
	if w.db != nil {
		_ = w.db.Close()
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
