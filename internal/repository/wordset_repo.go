package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vocabpractice/internal/database"
	"vocabpractice/internal/models"
)

// WordSetRepository handles database operations for word sets and their words
type WordSetRepository struct {
	db *database.DB
}

// NewWordSetRepository creates a new word set repository
func NewWordSetRepository(db *database.DB) *WordSetRepository {
	return &WordSetRepository{db: db}
}

// CreateWithWords inserts a word set and its words (positions 0..n-1) in one transaction
func (r *WordSetRepository) CreateWithWords(ctx context.Context, teacherID int64, title string, words []string) (*models.WordSet, []models.Word, error) {
	set := &models.WordSet{
		Title:     title,
		TeacherID: teacherID,
		CreatedAt: time.Now().UTC(),
	}
	var inserted []models.Word

	err := r.db.InTx(ctx, func(tx *database.Tx) error {
		id, err := tx.ExecReturningID(ctx,
			`INSERT INTO word_sets (title, teacher_id, created_at) VALUES (?, ?, ?)`,
			set.Title, set.TeacherID, set.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create word set: %w", err)
		}
		set.ID = id

		inserted, err = insertWords(ctx, tx, id, words)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return set, inserted, nil
}

// GetWordSet retrieves a word set by ID
func (r *WordSetRepository) GetWordSet(ctx context.Context, id int64) (*models.WordSet, error) {
	query := `SELECT id, title, teacher_id, created_at FROM word_sets WHERE id = ?`
	set := &models.WordSet{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&set.ID, &set.Title, &set.TeacherID, &set.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word set: %w", err)
	}
	return set, nil
}

// ListByTeacher returns a teacher's word sets, newest first
func (r *WordSetRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.WordSet, error) {
	query := `
		SELECT id, title, teacher_id, created_at
		FROM word_sets
		WHERE teacher_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.queryWordSets(ctx, query, teacherID)
}

// ListAll returns every word set, oldest first (used by backups)
func (r *WordSetRepository) ListAll(ctx context.Context) ([]models.WordSet, error) {
	return r.queryWordSets(ctx, `SELECT id, title, teacher_id, created_at FROM word_sets ORDER BY id`)
}

func (r *WordSetRepository) queryWordSets(ctx context.Context, query string, args ...interface{}) ([]models.WordSet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query word sets: %w", err)
	}
	defer rows.Close()

	sets := []models.WordSet{}
	for rows.Next() {
		var set models.WordSet
		if err := rows.Scan(&set.ID, &set.Title, &set.TeacherID, &set.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan word set: %w", err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

// ListSummariesByTeacher returns a teacher's word sets with word and submission
// counts, newest first, in a single round trip.
func (r *WordSetRepository) ListSummariesByTeacher(ctx context.Context, teacherID int64) ([]models.WordSetSummary, error) {
	query := `
		SELECT ws.id, ws.title, ws.teacher_id, ws.created_at,
			COALESCE(wc.word_count, 0),
			COALESCE(sc.submission_count, 0)
		FROM word_sets ws
		LEFT JOIN (
			SELECT word_set_id, COUNT(*) AS word_count
			FROM words
			GROUP BY word_set_id
		) wc ON wc.word_set_id = ws.id
		LEFT JOIN (
			SELECT word_set_id, COUNT(*) AS submission_count
			FROM submissions
			GROUP BY word_set_id
		) sc ON sc.word_set_id = ws.id
		WHERE ws.teacher_id = ?
		ORDER BY ws.created_at DESC, ws.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query word set summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.WordSetSummary{}
	for rows.Next() {
		var s models.WordSetSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.TeacherID, &s.CreatedAt, &s.WordCount, &s.SubmissionCount); err != nil {
			return nil, fmt.Errorf("failed to scan word set summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListWords returns the words of a set ordered by position
func (r *WordSetRepository) ListWords(ctx context.Context, wordSetID int64) ([]models.Word, error) {
	return listWords(ctx, r.db, `WHERE word_set_id = ? ORDER BY position`, wordSetID)
}

// ListAllWords returns every word (used by backups)
func (r *WordSetRepository) ListAllWords(ctx context.Context) ([]models.Word, error) {
	return listWords(ctx, r.db, `ORDER BY word_set_id, position`)
}

func listWords(ctx context.Context, q database.DBTX, where string, args ...interface{}) ([]models.Word, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, word_set_id, word, position FROM words `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	words := []models.Word{}
	for rows.Next() {
		var w models.Word
		if err := rows.Scan(&w.ID, &w.WordSetID, &w.Word, &w.Position); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// ReplaceWords deletes every word of the set and inserts the given list at
// positions 0..n-1. Both steps share one transaction so a failed insert
// leaves the previous list in place.
func (r *WordSetRepository) ReplaceWords(ctx context.Context, wordSetID int64, words []string) ([]models.Word, error) {
	var inserted []models.Word
	err := r.db.InTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM words WHERE word_set_id = ?`, wordSetID); err != nil {
			return fmt.Errorf("failed to delete words: %w", err)
		}
		var err error
		inserted, err = insertWords(ctx, tx, wordSetID, words)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

func insertWords(ctx context.Context, q database.DBTX, wordSetID int64, words []string) ([]models.Word, error) {
	inserted := make([]models.Word, 0, len(words))
	for i, text := range words {
		id, err := q.ExecReturningID(ctx,
			`INSERT INTO words (word_set_id, word, position) VALUES (?, ?, ?)`,
			wordSetID, text, i)
		if err != nil {
			return nil, fmt.Errorf("failed to insert word %q: %w", text, err)
		}
		inserted = append(inserted, models.Word{ID: id, WordSetID: wordSetID, Word: text, Position: i})
	}
	return inserted, nil
}

// Delete removes a word set. Words, submissions and answers go with it.
func (r *WordSetRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM word_sets WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete word set: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}
