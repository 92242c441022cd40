package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"vocabpractice/internal/database"
	"vocabpractice/internal/logger"
	"vocabpractice/internal/models"
	"vocabpractice/internal/repository"
)

const backupVersion = "1.0"

// BackupData is the portable JSON form of the whole database. IDs are the
// source database's and are remapped on import.
type BackupData struct {
	Version     string              `json:"version"`
	ExportedAt  time.Time           `json:"exported_at"`
	Teachers    []TeacherBackup     `json:"teachers"`
	WordSets    []models.WordSet    `json:"word_sets"`
	Words       []models.Word       `json:"words"`
	Submissions []models.Submission `json:"submissions"`
	Answers     []models.Answer     `json:"answers"`
}

// TeacherBackup is a teacher row including credentials
type TeacherBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	FullName      string    `json:"full_name"`
	OAuthProvider string    `json:"oauth_provider,omitempty"`
	OAuthSubject  string    `json:"oauth_subject,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ImportStats counts the rows an import created
type ImportStats struct {
	Teachers    int
	WordSets    int
	Words       int
	Submissions int
	Answers     int
}

// BackupService exports and restores database contents as JSON
type BackupService struct {
	db          *database.DB
	teachers    *repository.TeacherRepository
	wordSets    *repository.WordSetRepository
	submissions *repository.SubmissionRepository
	log         *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{
		db:          db,
		teachers:    repository.NewTeacherRepository(db),
		wordSets:    repository.NewWordSetRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		log:         log,
	}
}

// Snapshot reads every exportable row
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{Version: backupVersion, ExportedAt: time.Now().UTC()}

	teachers, err := s.teachers.ListAllTeachers(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teachers {
		backup.Teachers = append(backup.Teachers, TeacherBackup{
			ID:            t.ID,
			Email:         t.Email,
			PasswordHash:  t.PasswordHash,
			FullName:      t.FullName,
			OAuthProvider: t.OAuthProvider,
			OAuthSubject:  t.OAuthSubject,
			CreatedAt:     t.CreatedAt,
			UpdatedAt:     t.UpdatedAt,
		})
	}

	if backup.WordSets, err = s.wordSets.ListAll(ctx); err != nil {
		return nil, err
	}
	if backup.Words, err = s.wordSets.ListAllWords(ctx); err != nil {
		return nil, err
	}
	if backup.Submissions, err = s.submissions.ListAll(ctx); err != nil {
		return nil, err
	}
	if backup.Answers, err = s.submissions.ListAllAnswers(ctx); err != nil {
		return nil, err
	}
	return backup, nil
}

// Export writes an indented JSON backup to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("backup exported",
		"teachers", len(backup.Teachers),
		"word_sets", len(backup.WordSets),
		"submissions", len(backup.Submissions))
	return backup, nil
}

// Import restores a JSON backup from r inside one transaction. With clear
// set, existing data is removed first. Teachers whose email already exists
// are reused rather than duplicated.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*ImportStats, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	stats := &ImportStats{}
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		if clear {
			if err := clearTables(ctx, tx); err != nil {
				return err
			}
		}
		return importRows(ctx, tx, &backup, stats)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("backup imported",
		"teachers", stats.Teachers,
		"word_sets", stats.WordSets,
		"words", stats.Words,
		"submissions", stats.Submissions,
		"answers", stats.Answers)
	return stats, nil
}

func clearTables(ctx context.Context, tx *database.Tx) error {
	for _, table := range []string{"answers", "submissions", "words", "word_sets", "password_reset_tokens", "sessions", "teachers"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func importRows(ctx context.Context, tx *database.Tx, b *BackupData, stats *ImportStats) error {
	teacherIDs := make(map[int64]int64, len(b.Teachers))
	for _, t := range b.Teachers {
		var existing int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM teachers WHERE email = ?`, t.Email).Scan(&existing)
		if err == nil {
			teacherIDs[t.ID] = existing
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up teacher %s: %w", t.Email, err)
		}

		id, err := tx.ExecReturningID(ctx, `
			INSERT INTO teachers (email, password_hash, full_name, oauth_provider, oauth_subject, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.Email, t.PasswordHash, t.FullName, nullIfEmpty(t.OAuthProvider), nullIfEmpty(t.OAuthSubject), t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import teacher %s: %w", t.Email, err)
		}
		teacherIDs[t.ID] = id
		stats.Teachers++
	}

	setIDs := make(map[int64]int64, len(b.WordSets))
	for _, ws := range b.WordSets {
		teacherID, ok := teacherIDs[ws.TeacherID]
		if !ok {
			return fmt.Errorf("word set %d references unknown teacher %d", ws.ID, ws.TeacherID)
		}
		id, err := tx.ExecReturningID(ctx,
			`INSERT INTO word_sets (title, teacher_id, created_at) VALUES (?, ?, ?)`,
			ws.Title, teacherID, ws.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import word set %d: %w", ws.ID, err)
		}
		setIDs[ws.ID] = id
		stats.WordSets++
	}

	wordIDs := make(map[int64]int64, len(b.Words))
	for _, w := range b.Words {
		setID, ok := setIDs[w.WordSetID]
		if !ok {
			return fmt.Errorf("word %d references unknown word set %d", w.ID, w.WordSetID)
		}
		id, err := tx.ExecReturningID(ctx,
			`INSERT INTO words (word_set_id, word, position) VALUES (?, ?, ?)`,
			setID, w.Word, w.Position)
		if err != nil {
			return fmt.Errorf("failed to import word %d: %w", w.ID, err)
		}
		wordIDs[w.ID] = id
		stats.Words++
	}

	subIDs := make(map[int64]int64, len(b.Submissions))
	for _, sub := range b.Submissions {
		setID, ok := setIDs[sub.WordSetID]
		if !ok {
			return fmt.Errorf("submission %d references unknown word set %d", sub.ID, sub.WordSetID)
		}
		id, err := tx.ExecReturningID(ctx,
			`INSERT INTO submissions (word_set_id, student_name, created_at) VALUES (?, ?, ?)`,
			setID, sub.StudentName, sub.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import submission %d: %w", sub.ID, err)
		}
		subIDs[sub.ID] = id
		stats.Submissions++
	}

	for _, a := range b.Answers {
		subID, ok := subIDs[a.SubmissionID]
		if !ok {
			return fmt.Errorf("answer %d references unknown submission %d", a.ID, a.SubmissionID)
		}
		wordID, ok := wordIDs[a.WordID]
		if !ok {
			return fmt.Errorf("answer %d references unknown word %d", a.ID, a.WordID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO answers (submission_id, word_id, sentence) VALUES (?, ?, ?)`,
			subID, wordID, a.Sentence); err != nil {
			return fmt.Errorf("failed to import answer %d: %w", a.ID, err)
		}
		stats.Answers++
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
