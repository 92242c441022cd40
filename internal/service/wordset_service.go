package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"vocabpractice/internal/logger"
	"vocabpractice/internal/models"
	"vocabpractice/internal/repository"
	"vocabpractice/internal/validation"
)

var (
	ErrWordSetNotFound = errors.New("word set not found")
	ErrNoWords         = errors.New("please enter at least one word")
	ErrStudentRequired = errors.New("student name is required")
)

// WordSetService is the teacher-facing word set manager. Every method is
// scoped to a teacher; a set owned by someone else behaves as missing.
type WordSetService struct {
	wordSets    *repository.WordSetRepository
	submissions *repository.SubmissionRepository
	log         *logger.Logger
}

// NewWordSetService creates a new word set service
func NewWordSetService(wordSets *repository.WordSetRepository, submissions *repository.SubmissionRepository, log *logger.Logger) *WordSetService {
	return &WordSetService{
		wordSets:    wordSets,
		submissions: submissions,
		log:         log,
	}
}

// CreateWordSet stores a new set with its non-blank words at positions 0..n-1
func (s *WordSetService) CreateWordSet(ctx context.Context, teacherID int64, title string, words []string) (*models.WordSet, error) {
	title, err := validation.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	cleaned := validation.CleanWords(words)
	if len(cleaned) == 0 {
		return nil, ErrNoWords
	}

	set, _, err := s.wordSets.CreateWithWords(ctx, teacherID, title, cleaned)
	if err != nil {
		return nil, err
	}
	s.log.Info("word set created", "teacher_id", teacherID, "word_set_id", set.ID, "words", len(cleaned))
	return set, nil
}

// Dashboard lists the teacher's sets newest first with word and submission counts
func (s *WordSetService) Dashboard(ctx context.Context, teacherID int64) ([]models.WordSetSummary, error) {
	return s.wordSets.ListSummariesByTeacher(ctx, teacherID)
}

func (s *WordSetService) owned(ctx context.Context, teacherID, id int64) (*models.WordSet, error) {
	set, err := s.wordSets.GetWordSet(ctx, id)
	if err != nil {
		return nil, err
	}
	if set == nil || set.TeacherID != teacherID {
		return nil, ErrWordSetNotFound
	}
	return set, nil
}

// Detail loads a set with its words and submissions
func (s *WordSetService) Detail(ctx context.Context, teacherID, id int64) (*models.WordSetDetail, error) {
	set, err := s.owned(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}

	detail := &models.WordSetDetail{WordSet: *set}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		words, err := s.wordSets.ListWords(gctx, id)
		detail.Words = words
		return err
	})
	g.Go(func() error {
		subs, err := s.submissions.ListByWordSet(gctx, id)
		detail.Submissions = subs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// ReplaceWords swaps the set's whole word list for the cleaned input
func (s *WordSetService) ReplaceWords(ctx context.Context, teacherID, id int64, words []string) ([]models.Word, error) {
	if _, err := s.owned(ctx, teacherID, id); err != nil {
		return nil, err
	}
	cleaned := validation.CleanWords(words)
	if len(cleaned) == 0 {
		return nil, ErrNoWords
	}

	inserted, err := s.wordSets.ReplaceWords(ctx, id, cleaned)
	if err != nil {
		return nil, err
	}
	s.log.Info("word set words replaced", "teacher_id", teacherID, "word_set_id", id, "words", len(inserted))
	return inserted, nil
}

// DeleteWordSet removes a set along with its words, submissions and answers
func (s *WordSetService) DeleteWordSet(ctx context.Context, teacherID, id int64) error {
	if _, err := s.owned(ctx, teacherID, id); err != nil {
		return err
	}
	deleted, err := s.wordSets.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrWordSetNotFound
	}
	s.log.Info("word set deleted", "teacher_id", teacherID, "word_set_id", id)
	return nil
}

// RestartStudent deletes every submission a student made on the set so
// they can practice it from scratch.
func (s *WordSetService) RestartStudent(ctx context.Context, teacherID, id int64, studentName string) (int64, error) {
	if strings.TrimSpace(studentName) == "" {
		return 0, ErrStudentRequired
	}
	if _, err := s.owned(ctx, teacherID, id); err != nil {
		return 0, err
	}
	n, err := s.submissions.DeleteByStudent(ctx, id, studentName)
	if err != nil {
		return 0, err
	}
	s.log.Info("student restarted", "teacher_id", teacherID, "word_set_id", id, "submissions_removed", n)
	return n, nil
}

// StudentAnswers returns the student's newest submission with its answers.
// A student with no submission gets an empty answer list.
func (s *WordSetService) StudentAnswers(ctx context.Context, teacherID, id int64, studentName string) (*models.StudentAnswers, error) {
	set, err := s.owned(ctx, teacherID, id)
	if err != nil {
		return nil, err
	}

	result := &models.StudentAnswers{
		WordSet:     *set,
		StudentName: studentName,
		Answers:     []models.AnswerView{},
	}
	latest, err := s.submissions.Latest(ctx, id, studentName)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return result, nil
	}

	answers, err := s.submissions.ListAnswerViews(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	result.Submission = latest
	result.Answers = answers
	return result, nil
}
