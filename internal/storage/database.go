package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/domain"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/srs"
	"github.com/Prygunov-Andrei/anki-cards-sub000/internal/training"
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertWord inserts a new word and returns its id.
func (db *DB) InsertWord(ctx context.Context, w domain.Word, sourceID int64) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO words (hash, text, translation, example, category_id, image_file, audio_file, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, w.Hash, w.Text, w.Translation, w.Example, w.CategoryID, w.ImageFile, w.AudioFile, nullInt64(sourceID))
	if err != nil {
		return 0, fmt.Errorf("failed to insert word %s: %w", w.Hash, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id for word %s: %w", w.Hash, err)
	}
	return id, nil
}

// FindWordByHash retrieves a word by its content hash, or nil when absent.
func (db *DB) FindWordByHash(ctx context.Context, hash string) (*domain.Word, error) {
	var w domain.Word
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, hash, text, translation, example, category_id, image_file, audio_file
		FROM words WHERE hash = ?
	`, hash)

	err := row.Scan(&w.ID, &w.Hash, &w.Text, &w.Translation, &w.Example, &w.CategoryID, &w.ImageFile, &w.AudioFile)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Word not found
		}
		return nil, fmt.Errorf("failed to find word by hash %s: %w", hash, err)
	}
	return &w, nil
}

// GetWordsBySourceID retrieves all words imported from a specific source.
func (db *DB) GetWordsBySourceID(ctx context.Context, sourceID int64) ([]domain.Word, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, hash, text, translation, example, category_id, image_file, audio_file
		FROM words WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get words for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var words []domain.Word
	for rows.Next() {
		var w domain.Word
		if err := rows.Scan(&w.ID, &w.Hash, &w.Text, &w.Translation, &w.Example, &w.CategoryID, &w.ImageFile, &w.AudioFile); err != nil {
			return nil, fmt.Errorf("failed to scan word row for source %d: %w", sourceID, err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// DeleteWordByHash removes a word together with its cards and their states.
// Review logs are append-only history and stay untouched.
func (db *DB) DeleteWordByHash(ctx context.Context, hash string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete for word %s: %w", hash, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM card_states WHERE card_id IN
			(SELECT c.id FROM cards c JOIN words w ON c.word_id = w.id WHERE w.hash = ?)
	`, hash); err != nil {
		return fmt.Errorf("failed to delete states for word %s: %w", hash, err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM cards WHERE word_id IN (SELECT id FROM words WHERE hash = ?)
	`, hash); err != nil {
		return fmt.Errorf("failed to delete cards for word %s: %w", hash, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM words WHERE hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete word %s: %w", hash, err)
	}
	return tx.Commit()
}

// InsertCard creates one face of a word and returns the card id.
func (db *DB) InsertCard(ctx context.Context, wordID int64, cardType domain.CardType) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO cards (word_id, card_type) VALUES (?, ?)
	`, wordID, string(cardType))
	if err != nil {
		return 0, fmt.Errorf("failed to insert card for word %d: %w", wordID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id for card: %w", err)
	}
	return id, nil
}

// InsertMemoryState stores the initial scheduling state for a card.
func (db *DB) InsertMemoryState(ctx context.Context, s srs.MemoryState) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO card_states (card_id, state, step, stability, difficulty, interval_days, due, repetitions, lapses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.CardID, int(s.State), s.Step, s.Stability, s.Difficulty, s.IntervalDays, nullTime(s.Due), s.Repetitions, s.Lapses)
	if err != nil {
		return fmt.Errorf("failed to insert state for card %d: %w", s.CardID, err)
	}
	return nil
}

// FindMemoryState retrieves a card's scheduling state, or nil when absent.
func (db *DB) FindMemoryState(ctx context.Context, cardID int64) (*srs.MemoryState, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT card_id, state, step, stability, difficulty, interval_days, due, repetitions, lapses
		FROM card_states WHERE card_id = ?
	`, cardID)

	s, err := scanState(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // State not found
		}
		return nil, fmt.Errorf("failed to find state for card %d: %w", cardID, err)
	}
	return s, nil
}

// ListStates returns the scheduling states of all cards, optionally filtered
// by the owning word's category (0 selects every category).
func (db *DB) ListStates(ctx context.Context, categoryID int64) ([]srs.MemoryState, error) {
	query := `
		SELECT cs.card_id, cs.state, cs.step, cs.stability, cs.difficulty, cs.interval_days, cs.due, cs.repetitions, cs.lapses
		FROM card_states cs
	`
	var args []any
	if categoryID != 0 {
		query += `
		JOIN cards c ON cs.card_id = c.id
		JOIN words w ON c.word_id = w.id
		WHERE w.category_id = ?`
		args = append(args, categoryID)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list card states: %w", err)
	}
	defer rows.Close()

	var states []srs.MemoryState
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card state row: %w", err)
		}
		states = append(states, *s)
	}
	return states, rows.Err()
}

// ListStabilities returns the current stability of every card.
func (db *DB) ListStabilities(ctx context.Context) ([]float64, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT stability FROM card_states`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stabilities: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan stability row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveSession persists a built session and its frozen card order.
func (db *DB) SaveSession(ctx context.Context, sess training.Session) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save session %s: %w", sess.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, duration_minutes, new_count, review_count, learning_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.CreatedAt, sess.DurationMinutes, sess.NewCount, sess.ReviewCount, sess.LearningCount); err != nil {
		return fmt.Errorf("failed to insert session %s: %w", sess.ID, err)
	}

	for pos, cardID := range sess.CardIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO session_cards (session_id, card_id, position) VALUES (?, ?, ?)
		`, sess.ID, cardID, pos); err != nil {
			return fmt.Errorf("failed to insert session card %d: %w", cardID, err)
		}
	}
	return tx.Commit()
}

// FindSession loads a session and the set of cards already answered in it.
// Returns (nil, nil, nil) for an unknown id.
func (db *DB) FindSession(ctx context.Context, id string) (*training.Session, map[int64]bool, error) {
	var sess training.Session
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, created_at, duration_minutes, new_count, review_count, learning_count
		FROM sessions WHERE id = ?
	`, id)
	if err := row.Scan(&sess.ID, &sess.CreatedAt, &sess.DurationMinutes,
		&sess.NewCount, &sess.ReviewCount, &sess.LearningCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil // Session not found
		}
		return nil, nil, fmt.Errorf("failed to find session %s: %w", id, err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id FROM session_cards WHERE session_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cards for session %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var cardID int64
		if err := rows.Scan(&cardID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan session card: %w", err)
		}
		sess.CardIDs = append(sess.CardIDs, cardID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	answered := make(map[int64]bool)
	logRows, err := db.conn.QueryContext(ctx, `
		SELECT card_id FROM review_logs WHERE session_id = ?
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load answers for session %s: %w", id, err)
	}
	defer logRows.Close()
	for logRows.Next() {
		var cardID int64
		if err := logRows.Scan(&cardID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan answered card: %w", err)
		}
		answered[cardID] = true
	}
	return &sess, answered, logRows.Err()
}

// ApplyReview persists an answer: the card's new state and the log entry land
// in one transaction, or neither does.
func (db *DB) ApplyReview(ctx context.Context, s srs.MemoryState, entry domain.ReviewLog) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review for card %d: %w", s.CardID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE card_states
		SET state = ?, step = ?, stability = ?, difficulty = ?, interval_days = ?, due = ?, repetitions = ?, lapses = ?
		WHERE card_id = ?
	`, int(s.State), s.Step, s.Stability, s.Difficulty, s.IntervalDays, nullTime(s.Due), s.Repetitions, s.Lapses, s.CardID); err != nil {
		return fmt.Errorf("failed to update state for card %d: %w", s.CardID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO review_logs (card_id, session_id, answered_at, quality, time_spent_seconds, interval_days_before, interval_days_after)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.CardID, entry.SessionID, entry.AnsweredAt, entry.Quality,
		entry.TimeSpentSeconds, entry.IntervalDaysBefore, entry.IntervalDaysAfter); err != nil {
		return fmt.Errorf("failed to insert review log for card %d: %w", entry.CardID, err)
	}
	return tx.Commit()
}

// ListReviewLogs returns the full answer history, oldest first.
func (db *DB) ListReviewLogs(ctx context.Context) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, session_id, answered_at, quality, time_spent_seconds, interval_days_before, interval_days_after
		FROM review_logs ORDER BY answered_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list review logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var entry domain.ReviewLog
		if err := rows.Scan(&entry.CardID, &entry.SessionID, &entry.AnsweredAt, &entry.Quality,
			&entry.TimeSpentSeconds, &entry.IntervalDaysBefore, &entry.IntervalDaysAfter); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// ListCardItems resolves the client payload for the given cards, preserving
// the input order.
func (db *DB) ListCardItems(ctx context.Context, cardIDs []int64) ([]domain.CardListItem, error) {
	items := make([]domain.CardListItem, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		var item domain.CardListItem
		var state int
		row := db.conn.QueryRowContext(ctx, `
			SELECT c.id, w.id, w.text, w.translation, c.card_type, w.image_file, w.audio_file, cs.state
			FROM cards c
			JOIN words w ON c.word_id = w.id
			JOIN card_states cs ON cs.card_id = c.id
			WHERE c.id = ?
		`, cardID)
		if err := row.Scan(&item.ID, &item.WordID, &item.WordText, &item.WordTranslation,
			&item.CardType, &item.ImageFile, &item.AudioFile, &state); err != nil {
			return nil, fmt.Errorf("failed to resolve card %d: %w", cardID, err)
		}
		item.IsInLearningMode = srs.State(state) == srs.StateLearning
		if item.CardType == domain.CardTypeInverted {
			// Inverted cards show the translation and ask for the word.
			item.WordText, item.WordTranslation = item.WordTranslation, item.WordText
		}
		items = append(items, item)
	}
	return items, nil
}

// StateCounts summarizes the card population for the stats endpoint.
type StateCounts struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
	DueNow   int `json:"due_now"`
}

// CountStates tallies cards by scheduling state and counts those due at now.
func (db *DB) CountStates(ctx context.Context, now time.Time) (*StateCounts, error) {
	var counts StateCounts
	rows, err := db.conn.QueryContext(ctx, `
		SELECT state, COUNT(*) FROM card_states GROUP BY state
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count states: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state, n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		switch srs.State(state) {
		case srs.StateNew:
			counts.New = n
		case srs.StateLearning:
			counts.Learning = n
		case srs.StateReview:
			counts.Review = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM card_states WHERE state != 0 AND due IS NOT NULL AND due <= ?
	`, now)
	if err := row.Scan(&counts.DueNow); err != nil {
		return nil, fmt.Errorf("failed to count due cards: %w", err)
	}
	return &counts, nil
}

// Source represents a word source, either a local path or a Git URL.
type Source struct {
	ID          int64        `json:"id"`
	Path        string       `json:"path"`
	Type        string       `json:"type"`
	LastScanned sql.NullTime `json:"-"`
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(ctx context.Context, path, sourceType string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (path, type) VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, path, type, last_scanned FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, path, type, last_scanned FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source. Its words stay until the next reconcile.
func (db *DB) DeleteSource(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source %d: %w", sourceID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*srs.MemoryState, error) {
	var s srs.MemoryState
	var state int
	var due sql.NullTime
	if err := row.Scan(&s.CardID, &state, &s.Step, &s.Stability, &s.Difficulty,
		&s.IntervalDays, &due, &s.Repetitions, &s.Lapses); err != nil {
		return nil, err
	}
	s.State = srs.State(state)
	if due.Valid {
		s.Due = due.Time
	}
	return &s, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
