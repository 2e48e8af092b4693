// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/lexicon/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Ingestion tasks write concurrently; one connection serializes them.
	// Never run a query while iterating rows from another.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS topics (
		filename TEXT PRIMARY KEY,
		publication TEXT NOT NULL,
		article TEXT NOT NULL,
		title TEXT NOT NULL,
		subtitle TEXT,
		restricted INTEGER NOT NULL DEFAULT 1,
		kind TEXT NOT NULL,
		sections TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_topics_publication ON topics(publication, article);

	CREATE TABLE IF NOT EXISTS lemmas (
		id TEXT PRIMARY KEY,
		topic_filename TEXT NOT NULL,
		position INTEGER NOT NULL,
		section_index INTEGER NOT NULL,
		native TEXT NOT NULL,
		foreign_text TEXT NOT NULL,
		roman TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_lemmas_topic ON lemmas(topic_filename, position);

	CREATE TABLE IF NOT EXISTS words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word TEXT NOT NULL,
		lang TEXT NOT NULL,
		filename TEXT NOT NULL,
		position INTEGER NOT NULL,
		lemma_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_words_word ON words(word);
	CREATE INDEX IF NOT EXISTS idx_words_filename ON words(filename);
	`
	_, err := db.Exec(schema)
	return err
}

const topicColumns = `filename, publication, article, title, subtitle, restricted, kind, sections, fingerprint, created_at`

// CreateTopic inserts a topic. A topic with the same filename must not exist.
func (s *SQLiteStorage) CreateTopic(ctx context.Context, topic *models.Topic) error {
	sections := topic.Sections
	if sections == nil {
		sections = []string{}
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	topic.CreatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO topics (`+topicColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		topic.Filename, topic.Publication, topic.Article, topic.Title, topic.Subtitle,
		topic.Restricted, string(topic.Kind), string(sectionsJSON), topic.Fingerprint, topic.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert topic %s: %w", topic.Filename, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTopic(row scanner) (*models.Topic, error) {
	var topic models.Topic
	var subtitle sql.NullString
	var kind, sectionsJSON string
	if err := row.Scan(&topic.Filename, &topic.Publication, &topic.Article, &topic.Title, &subtitle,
		&topic.Restricted, &kind, &sectionsJSON, &topic.Fingerprint, &topic.CreatedAt); err != nil {
		return nil, err
	}
	topic.Subtitle = subtitle.String
	topic.Kind = models.DocumentKind(kind)
	if err := json.Unmarshal([]byte(sectionsJSON), &topic.Sections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
	}
	return &topic, nil
}

// GetTopic returns a topic by filename, or ErrNotFound.
func (s *SQLiteStorage) GetTopic(ctx context.Context, filename string) (*models.Topic, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+topicColumns+` FROM topics WHERE filename = ?`, filename)
	topic, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("topic %s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return topic, nil
}

// GetFingerprint returns the stored fingerprint of a topic and whether it exists.
func (s *SQLiteStorage) GetFingerprint(ctx context.Context, filename string) (string, bool, error) {
	var fp string
	err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM topics WHERE filename = ?`, filename).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read fingerprint: %w", err)
	}
	return fp, true, nil
}

// DeleteTopic removes a topic row and reports whether it existed.
func (s *SQLiteStorage) DeleteTopic(ctx context.Context, filename string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE filename = ?`, filename)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// ListTopicFilenames returns every stored topic key.
func (s *SQLiteStorage) ListTopicFilenames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename FROM topics ORDER BY filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListIndexTopics returns the publication listings ordered by publication.
func (s *SQLiteStorage) ListIndexTopics(ctx context.Context) ([]*models.Topic, error) {
	return s.queryTopics(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE kind = ? ORDER BY publication`,
		string(models.KindIndex))
}

// ListPublicationTopics returns the articles of a publication, index excluded.
func (s *SQLiteStorage) ListPublicationTopics(ctx context.Context, publication string) ([]*models.Topic, error) {
	return s.queryTopics(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE publication = ? AND kind != ? ORDER BY article`,
		publication, string(models.KindIndex))
}

func (s *SQLiteStorage) queryTopics(ctx context.Context, query string, args ...any) ([]*models.Topic, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []*models.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// BatchCreateLemmas inserts multiple lemmas in a transaction.
func (s *SQLiteStorage) BatchCreateLemmas(ctx context.Context, lemmas []*models.Lemma) error {
	if len(lemmas) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lemmas (id, topic_filename, position, section_index, native, foreign_text, roman)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range lemmas {
		if _, err := stmt.ExecContext(ctx, l.ID, l.TopicFilename, l.Position, l.SectionIndex, l.Native, l.Foreign, l.Roman); err != nil {
			return fmt.Errorf("failed to insert lemma %s: %w", l.ID, err)
		}
	}
	return tx.Commit()
}

const lemmaColumns = `id, topic_filename, position, section_index, native, foreign_text, roman`

func scanLemma(row scanner, l *models.Lemma) error {
	var roman sql.NullString
	if err := row.Scan(&l.ID, &l.TopicFilename, &l.Position, &l.SectionIndex, &l.Native, &l.Foreign, &roman); err != nil {
		return err
	}
	l.Roman = roman.String
	return nil
}

// GetLemmasByTopic returns the lemmas of a topic in document order.
func (s *SQLiteStorage) GetLemmasByTopic(ctx context.Context, filename string) ([]*models.Lemma, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lemmaColumns+` FROM lemmas WHERE topic_filename = ? ORDER BY position`, filename)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lemmas []*models.Lemma
	for rows.Next() {
		var l models.Lemma
		if err := scanLemma(rows, &l); err != nil {
			return nil, err
		}
		lemmas = append(lemmas, &l)
	}
	return lemmas, rows.Err()
}

// DeleteLemmasByTopic removes all lemmas of a topic.
func (s *SQLiteStorage) DeleteLemmasByTopic(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM lemmas WHERE topic_filename = ?`, filename)
	return err
}

// ForEachLemma streams every stored lemma to fn, stopping at the first error.
// fn must not call back into the storage.
func (s *SQLiteStorage) ForEachLemma(ctx context.Context, fn func(*models.Lemma) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+lemmaColumns+` FROM lemmas`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l models.Lemma
		if err := scanLemma(rows, &l); err != nil {
			return err
		}
		if err := fn(&l); err != nil {
			return err
		}
	}
	return rows.Err()
}

// BatchCreateWords inserts multiple word entries in a transaction and sets their IDs.
func (s *SQLiteStorage) BatchCreateWords(ctx context.Context, words []*models.WordEntry) error {
	if len(words) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO words (word, lang, filename, position, lemma_id) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range words {
		res, err := stmt.ExecContext(ctx, w.Word, string(w.Lang), w.Filename, w.Position, w.LemmaID)
		if err != nil {
			return fmt.Errorf("failed to insert word %q: %w", w.Word, err)
		}
		w.ID, _ = res.LastInsertId()
	}
	return tx.Commit()
}

// DeleteWordsByTopic removes all word entries of a topic.
func (s *SQLiteStorage) DeleteWordsByTopic(ctx context.Context, filename string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM words WHERE filename = ?`, filename)
	return err
}

// FindLemmasByWord returns the lemmas having an exact word entry, annotated
// with their topic, ordered by topic filename then lemma position. A lemma
// whose native and foreign text both contain the word is returned once.
func (s *SQLiteStorage) FindLemmasByWord(ctx context.Context, word string) ([]*models.LemmaHit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT l.id, l.topic_filename, l.position, l.section_index, l.native, l.foreign_text, l.roman,
		        t.title, t.restricted
		 FROM words w
		 JOIN lemmas l ON l.id = w.lemma_id
		 JOIN topics t ON t.filename = w.filename
		 WHERE w.word = ?
		 ORDER BY l.topic_filename, l.position`,
		word,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []*models.LemmaHit
	for rows.Next() {
		var h models.LemmaHit
		var roman sql.NullString
		if err := rows.Scan(&h.ID, &h.TopicFilename, &h.Position, &h.SectionIndex, &h.Native, &h.Foreign, &roman,
			&h.Title, &h.Restricted); err != nil {
			return nil, err
		}
		h.Roman = roman.String
		hits = append(hits, &h)
	}
	return hits, rows.Err()
}

// CountTopics returns the total number of topics.
func (s *SQLiteStorage) CountTopics(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM topics`)
}

// CountLemmas returns the total number of lemmas.
func (s *SQLiteStorage) CountLemmas(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM lemmas`)
}

// CountWords returns the total number of word entries.
func (s *SQLiteStorage) CountWords(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM words`)
}

func (s *SQLiteStorage) count(ctx context.Context, query string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
