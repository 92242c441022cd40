package service

import (
	"context"

	"vocabpractice/internal/models"
	"vocabpractice/internal/practice"
	"vocabpractice/internal/repository"
)

// PracticeStore backs the student wizard with the repositories
type PracticeStore struct {
	teachers    *repository.TeacherRepository
	wordSets    *repository.WordSetRepository
	submissions *repository.SubmissionRepository
}

var _ practice.Store = (*PracticeStore)(nil)

// NewPracticeStore creates a new practice store
func NewPracticeStore(teachers *repository.TeacherRepository, wordSets *repository.WordSetRepository, submissions *repository.SubmissionRepository) *PracticeStore {
	return &PracticeStore{teachers: teachers, wordSets: wordSets, submissions: submissions}
}

func (s *PracticeStore) ListTeachers(ctx context.Context) ([]models.TeacherOption, error) {
	return s.teachers.ListTeachers(ctx)
}

func (s *PracticeStore) ListWordSets(ctx context.Context, teacherID int64) ([]models.WordSet, error) {
	return s.wordSets.ListByTeacher(ctx, teacherID)
}

func (s *PracticeStore) GetWordSet(ctx context.Context, id int64) (*models.WordSet, error) {
	return s.wordSets.GetWordSet(ctx, id)
}

func (s *PracticeStore) ListWords(ctx context.Context, wordSetID int64) ([]models.Word, error) {
	return s.wordSets.ListWords(ctx, wordSetID)
}

// Submit stores the submission and all its answers atomically
func (s *PracticeStore) Submit(ctx context.Context, wordSetID int64, studentName string, answers []models.AnswerInput) (*models.Submission, error) {
	return s.submissions.CreateWithAnswers(ctx, wordSetID, studentName, answers)
}
