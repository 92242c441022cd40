package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vocabpractice/internal/logger"
	"vocabpractice/internal/models"
	"vocabpractice/internal/repository"
	"vocabpractice/internal/security"
	"vocabpractice/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset link")
)

const passwordResetTTL = time.Hour

// AuthService handles teacher accounts, sessions and password resets
type AuthService struct {
	teachers        *repository.TeacherRepository
	email           *EmailService
	sessionDuration time.Duration
	log             *logger.Logger
}

// NewAuthService creates a new auth service. email may be nil.
func NewAuthService(teachers *repository.TeacherRepository, email *EmailService, sessionDuration time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{
		teachers:        teachers,
		email:           email,
		sessionDuration: sessionDuration,
		log:             log,
	}
}

// Register creates a teacher account
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*models.Teacher, error) {
	form := &validation.Registration{Email: email, Password: password, FullName: fullName}
	if err := validation.ValidateRegistration(form); err != nil {
		return nil, err
	}
	email = strings.ToLower(form.Email)

	existing, err := s.teachers.GetTeacherByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing teacher: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	teacher, err := s.teachers.CreateTeacher(ctx, email, hash, form.FullName)
	if err != nil {
		return nil, err
	}
	s.log.Info("teacher registered", "teacher_id", teacher.ID)

	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, teacher.Email, teacher.FullName); err != nil {
			s.log.Warn("failed to send welcome email", "teacher_id", teacher.ID, "error", err)
		}
	}
	return teacher, nil
}

// Login authenticates a teacher and creates a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, *models.Teacher, error) {
	teacher, err := s.teachers.GetTeacherByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil || teacher.PasswordHash == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if !security.CheckPassword(password, teacher.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.newSession(ctx, teacher.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, teacher, nil
}

func (s *AuthService) newSession(ctx context.Context, teacherID int64) (*models.Session, error) {
	expiresAt := time.Now().Add(s.sessionDuration)
	session, err := s.teachers.CreateSession(ctx, security.GenerateSessionID(), teacherID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ValidateSession returns the teacher owning a live session
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.Teacher, error) {
	session, err := s.teachers.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		if err := s.teachers.DeleteSession(ctx, sessionID); err != nil {
			s.log.Warn("failed to delete expired session", "error", err)
		}
		return nil, ErrSessionExpired
	}

	teacher, err := s.teachers.GetTeacherByID(ctx, session.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil {
		return nil, ErrSessionNotFound
	}
	return teacher, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.teachers.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpired removes expired sessions and stale reset tokens
func (s *AuthService) CleanupExpired(ctx context.Context) error {
	n, err := s.teachers.DeleteExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if err := s.teachers.DeleteExpiredPasswordResetTokens(ctx); err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("expired sessions removed", "count", n)
	}
	return nil
}

// OAuthLogin signs in the teacher linked to provider/subject. An unknown
// subject is linked to the teacher with the same email, or a new teacher is
// created without a usable password.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, fullName string) (*models.Session, *models.Teacher, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	teacher, err := s.teachers.GetTeacherByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, nil, err
	}

	if teacher == nil {
		teacher, err = s.linkOrCreateOAuthTeacher(ctx, provider, subject, email, fullName)
		if err != nil {
			return nil, nil, err
		}
	}

	session, err := s.newSession(ctx, teacher.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, teacher, nil
}

func (s *AuthService) linkOrCreateOAuthTeacher(ctx context.Context, provider, subject, email, fullName string) (*models.Teacher, error) {
	existing, err := s.teachers.GetTeacherByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing teacher: %w", err)
	}
	if existing != nil {
		if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
			return nil, ErrEmailTaken
		}
		if err := s.teachers.LinkOAuthProvider(ctx, existing.ID, provider, subject); err != nil {
			return nil, err
		}
		s.log.Info("oauth provider linked", "teacher_id", existing.ID, "provider", provider)
		return existing, nil
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = strings.Split(email, "@")[0]
	}
	teacher, err := s.teachers.CreateTeacher(ctx, email, "", fullName)
	if err != nil {
		return nil, err
	}
	if err := s.teachers.LinkOAuthProvider(ctx, teacher.ID, provider, subject); err != nil {
		return nil, err
	}
	teacher.OAuthProvider = provider
	teacher.OAuthSubject = subject
	s.log.Info("teacher registered", "teacher_id", teacher.ID, "provider", provider)
	return teacher, nil
}

// RequestPasswordReset issues a one hour reset token and mails it. Unknown
// emails succeed silently so the form does not reveal which accounts exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	teacher, err := s.teachers.GetTeacherByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil {
		return nil
	}

	if err := s.teachers.DeleteTeacherPasswordResetTokens(ctx, teacher.ID); err != nil {
		return err
	}

	token := security.GenerateToken(32)
	if err := s.teachers.CreatePasswordResetToken(ctx, token, teacher.ID, time.Now().Add(passwordResetTTL)); err != nil {
		return err
	}

	if s.email != nil {
		if err := s.email.SendPasswordResetEmail(ctx, teacher.Email, teacher.FullName, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return nil
}

// ValidatePasswordResetToken reports whether token can still be used
func (s *AuthService) ValidatePasswordResetToken(ctx context.Context, token string) (bool, error) {
	t, err := s.teachers.GetPasswordResetToken(ctx, token)
	if err != nil {
		return false, err
	}
	return t != nil && !t.Used && !t.IsExpired(), nil
}

// ResetPassword sets a new password using a valid token and signs the
// teacher out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	t, err := s.teachers.GetPasswordResetToken(ctx, token)
	if err != nil {
		return err
	}
	if t == nil || t.Used || t.IsExpired() {
		return ErrInvalidResetToken
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.teachers.UpdatePassword(ctx, t.TeacherID, hash); err != nil {
		return err
	}
	if err := s.teachers.MarkPasswordResetTokenUsed(ctx, token); err != nil {
		return err
	}
	if err := s.teachers.DeleteTeacherSessions(ctx, t.TeacherID); err != nil {
		return err
	}

	s.log.Info("password reset", "teacher_id", t.TeacherID)
	return nil
}
