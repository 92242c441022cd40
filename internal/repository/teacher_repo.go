package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vocabpractice/internal/database"
	"vocabpractice/internal/models"
)

// TeacherRepository handles database operations for teachers, sessions and reset tokens
type TeacherRepository struct {
	db *database.DB
}

// NewTeacherRepository creates a new teacher repository
func NewTeacherRepository(db *database.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, email, password_hash, full_name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at`

func scanTeacher(row interface{ Scan(...interface{}) error }) (*models.Teacher, error) {
	t := &models.Teacher{}
	err := row.Scan(
		&t.ID,
		&t.Email,
		&t.PasswordHash,
		&t.FullName,
		&t.OAuthProvider,
		&t.OAuthSubject,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// CreateTeacher inserts a new teacher
func (r *TeacherRepository) CreateTeacher(ctx context.Context, email, passwordHash, fullName string) (*models.Teacher, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO teachers (email, password_hash, full_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, email, passwordHash, fullName, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create teacher: %w", err)
	}

	return &models.Teacher{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetTeacherByEmail retrieves a teacher by email address
func (r *TeacherRepository) GetTeacherByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE email = ?`
	t, err := scanTeacher(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	return t, nil
}

// GetTeacherByID retrieves a teacher by ID
func (r *TeacherRepository) GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE id = ?`
	t, err := scanTeacher(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	return t, nil
}

// GetTeacherByOAuth retrieves a teacher by OAuth provider and subject
func (r *TeacherRepository) GetTeacherByOAuth(ctx context.Context, provider, subject string) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE oauth_provider = ? AND oauth_subject = ?`
	t, err := scanTeacher(r.db.QueryRowContext(ctx, query, provider, subject))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher by oauth: %w", err)
	}
	return t, nil
}

// ListTeachers returns every teacher ordered by name, for the student picker
func (r *TeacherRepository) ListTeachers(ctx context.Context) ([]models.TeacherOption, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, full_name FROM teachers ORDER BY full_name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	defer rows.Close()

	teachers := []models.TeacherOption{}
	for rows.Next() {
		var t models.TeacherOption
		if err := rows.Scan(&t.ID, &t.FullName); err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// ListAllTeachers returns full teacher rows, oldest first (used by backups)
func (r *TeacherRepository) ListAllTeachers(ctx context.Context) ([]models.Teacher, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+teacherColumns+` FROM teachers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	defer rows.Close()

	var teachers []models.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, *t)
	}
	return teachers, rows.Err()
}

// LinkOAuthProvider links an existing teacher to an OAuth provider
func (r *TeacherRepository) LinkOAuthProvider(ctx context.Context, teacherID int64, provider, subject string) error {
	query := `
		UPDATE teachers
		SET oauth_provider = ?, oauth_subject = ?, updated_at = ?
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.ExecContext(ctx, query, provider, subject, time.Now().UTC(), teacherID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}
	return nil
}

// UpdatePassword replaces a teacher's password hash
func (r *TeacherRepository) UpdatePassword(ctx context.Context, teacherID int64, passwordHash string) error {
	query := `UPDATE teachers SET password_hash = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), teacherID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a teacher
func (r *TeacherRepository) CreateSession(ctx context.Context, sessionID string, teacherID int64, expiresAt time.Time) (*models.Session, error) {
	now := time.Now().UTC()
	query := `INSERT INTO sessions (id, teacher_id, expires_at, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, sessionID, teacherID, expiresAt.UTC(), now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		TeacherID: teacherID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID
func (r *TeacherRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `SELECT id, teacher_id, expires_at, created_at FROM sessions WHERE id = ?`
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.TeacherID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session
func (r *TeacherRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteTeacherSessions removes every session of a teacher
func (r *TeacherRepository) DeleteTeacherSessions(ctx context.Context, teacherID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE teacher_id = ?", teacherID); err != nil {
		return fmt.Errorf("failed to delete teacher sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *TeacherRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// CreatePasswordResetToken stores a new reset token
func (r *TeacherRepository) CreatePasswordResetToken(ctx context.Context, token string, teacherID int64, expiresAt time.Time) error {
	query := `INSERT INTO password_reset_tokens (token, teacher_id, expires_at, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, token, teacherID, expiresAt.UTC(), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetPasswordResetToken retrieves a reset token
func (r *TeacherRepository) GetPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	query := `SELECT token, teacher_id, expires_at, created_at, used FROM password_reset_tokens WHERE token = ?`
	t := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&t.Token, &t.TeacherID, &t.ExpiresAt, &t.CreatedAt, &t.Used)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return t, nil
}

// MarkPasswordResetTokenUsed flags a token so it cannot be reused
func (r *TeacherRepository) MarkPasswordResetTokenUsed(ctx context.Context, token string) error {
	query := `UPDATE password_reset_tokens SET used = ` + r.db.Dialect.BoolValue(true) + ` WHERE token = ?`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	return nil
}

// DeleteTeacherPasswordResetTokens removes outstanding tokens for a teacher
func (r *TeacherRepository) DeleteTeacherPasswordResetTokens(ctx context.Context, teacherID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE teacher_id = ?", teacherID); err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}

// DeleteExpiredPasswordResetTokens removes expired or used tokens
func (r *TeacherRepository) DeleteExpiredPasswordResetTokens(ctx context.Context) error {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < ? OR used = ` + r.db.Dialect.BoolValue(true)
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return nil
}
