package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vocabpractice/internal/database"
	"vocabpractice/internal/models"
)

// SubmissionRepository handles database operations for submissions and answers
type SubmissionRepository struct {
	db *database.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *database.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// CreateWithAnswers stores a submission and its answers as one unit
func (r *SubmissionRepository) CreateWithAnswers(ctx context.Context, wordSetID int64, studentName string, answers []models.AnswerInput) (*models.Submission, error) {
	sub := &models.Submission{
		WordSetID:   wordSetID,
		StudentName: studentName,
		CreatedAt:   time.Now().UTC(),
	}

	err := r.db.InTx(ctx, func(tx *database.Tx) error {
		id, err := tx.ExecReturningID(ctx,
			`INSERT INTO submissions (word_set_id, student_name, created_at) VALUES (?, ?, ?)`,
			sub.WordSetID, sub.StudentName, sub.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		sub.ID = id

		for _, a := range answers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO answers (submission_id, word_id, sentence) VALUES (?, ?, ?)`,
				id, a.WordID, a.Sentence); err != nil {
				return fmt.Errorf("failed to create answer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListByWordSet returns every submission for a word set, newest first
func (r *SubmissionRepository) ListByWordSet(ctx context.Context, wordSetID int64) ([]models.Submission, error) {
	query := `
		SELECT id, word_set_id, student_name, created_at
		FROM submissions
		WHERE word_set_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.querySubmissions(ctx, query, wordSetID)
}

// ListAll returns every submission, oldest first (used by backups)
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	return r.querySubmissions(ctx, `SELECT id, word_set_id, student_name, created_at FROM submissions ORDER BY id`)
}

func (r *SubmissionRepository) querySubmissions(ctx context.Context, query string, args ...interface{}) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.WordSetID, &s.StudentName, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Latest returns the newest submission for a student on a word set
func (r *SubmissionRepository) Latest(ctx context.Context, wordSetID int64, studentName string) (*models.Submission, error) {
	query := `
		SELECT id, word_set_id, student_name, created_at
		FROM submissions
		WHERE word_set_id = ? AND student_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	s := &models.Submission{}
	err := r.db.QueryRowContext(ctx, query, wordSetID, studentName).Scan(&s.ID, &s.WordSetID, &s.StudentName, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest submission: %w", err)
	}
	return s, nil
}

// ListAnswerViews returns a submission's answers joined with their word text,
// in the order they were written.
func (r *SubmissionRepository) ListAnswerViews(ctx context.Context, submissionID int64) ([]models.AnswerView, error) {
	query := `
		SELECT a.id, a.word_id, w.word, a.sentence
		FROM answers a
		JOIN words w ON w.id = a.word_id
		WHERE a.submission_id = ?
		ORDER BY a.id
	`
	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	views := []models.AnswerView{}
	for rows.Next() {
		var v models.AnswerView
		if err := rows.Scan(&v.AnswerID, &v.WordID, &v.Word, &v.Sentence); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// ListAllAnswers returns every stored answer (used by backups)
func (r *SubmissionRepository) ListAllAnswers(ctx context.Context) ([]models.Answer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, submission_id, word_id, sentence FROM answers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	answers := []models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.WordID, &a.Sentence); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// DeleteByStudent removes every submission a student made on a word set
func (r *SubmissionRepository) DeleteByStudent(ctx context.Context, wordSetID int64, studentName string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM submissions WHERE word_set_id = ? AND student_name = ?`, wordSetID, studentName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete submissions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n, nil
}
