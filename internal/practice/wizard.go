package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vocabpractice/internal/models"
)

var (
	ErrTeacherNotFound     = errors.New("teacher not found")
	ErrEmptyName           = errors.New("please enter your name")
	ErrIncompleteSelection = errors.New("please complete all fields")
	ErrWordSetNotFound     = errors.New("word set not found")
	ErrNoWords             = errors.New("this word set has no words yet")
	ErrEmptySentence       = errors.New("please write a sentence")
	ErrSubmitFailed        = errors.New("failed to submit answers")
	ErrAnswerMismatch      = errors.New("answers do not match the word list")
	ErrWordsChanged        = errors.New("your teacher changed this word set, please choose it again")
	ErrWrongStep           = errors.New("that action is not available right now")
)

// Store is the data the wizard reads and the one write it performs
type Store interface {
	ListTeachers(ctx context.Context) ([]models.TeacherOption, error)
	ListWordSets(ctx context.Context, teacherID int64) ([]models.WordSet, error)
	GetWordSet(ctx context.Context, id int64) (*models.WordSet, error)
	ListWords(ctx context.Context, wordSetID int64) ([]models.Word, error)
	Submit(ctx context.Context, wordSetID int64, studentName string, answers []models.AnswerInput) (*models.Submission, error)
}

// Wizard implements the student practice flow. It holds no per-student
// data; callers keep the State between requests.
type Wizard struct {
	store Store
}

// NewWizard creates a wizard over store
func NewWizard(store Store) *Wizard {
	return &Wizard{store: store}
}

// Start returns the initial state
func (w *Wizard) Start() SelectTeacher {
	return SelectTeacher{}
}

// Restart discards everything and returns to the initial state
func (w *Wizard) Restart() SelectTeacher {
	return SelectTeacher{}
}

// Teachers lists teachers for the first step, ordered by name
func (w *Wizard) Teachers(ctx context.Context) ([]models.TeacherOption, error) {
	return w.store.ListTeachers(ctx)
}

// ChooseTeacher moves to EnterName as soon as a known teacher is picked
func (w *Wizard) ChooseTeacher(ctx context.Context, _ SelectTeacher, teacherID int64) (EnterName, error) {
	if teacherID <= 0 {
		return EnterName{}, ErrTeacherNotFound
	}
	teachers, err := w.store.ListTeachers(ctx)
	if err != nil {
		return EnterName{}, fmt.Errorf("failed to load teachers: %w", err)
	}
	for _, t := range teachers {
		if t.ID == teacherID {
			return EnterName{TeacherID: t.ID, TeacherName: t.FullName}, nil
		}
	}
	return EnterName{}, ErrTeacherNotFound
}

// EnterName accepts the student's name; blank names do not advance
func (w *Wizard) EnterName(s EnterName, name string) (SelectWordSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SelectWordSet{}, ErrEmptyName
	}
	return SelectWordSet{
		TeacherID:   s.TeacherID,
		TeacherName: s.TeacherName,
		StudentName: name,
	}, nil
}

// WordSets lists the chosen teacher's sets, newest first
func (w *Wizard) WordSets(ctx context.Context, s SelectWordSet) ([]models.WordSet, error) {
	return w.store.ListWordSets(ctx, s.TeacherID)
}

// ChooseWordSet loads the set's words in position order and starts answering
func (w *Wizard) ChooseWordSet(ctx context.Context, s SelectWordSet, wordSetID int64) (Answering, error) {
	if s.TeacherID <= 0 || strings.TrimSpace(s.StudentName) == "" || wordSetID <= 0 {
		return Answering{}, ErrIncompleteSelection
	}

	set, err := w.store.GetWordSet(ctx, wordSetID)
	if err != nil {
		return Answering{}, fmt.Errorf("failed to load word set: %w", err)
	}
	if set == nil || set.TeacherID != s.TeacherID {
		return Answering{}, ErrWordSetNotFound
	}

	words, err := w.store.ListWords(ctx, set.ID)
	if err != nil {
		return Answering{}, fmt.Errorf("failed to load words: %w", err)
	}
	if len(words) == 0 {
		return Answering{}, ErrNoWords
	}

	return Answering{
		TeacherID:   s.TeacherID,
		TeacherName: s.TeacherName,
		StudentName: strings.TrimSpace(s.StudentName),
		WordSet:     *set,
		Words:       words,
		Answers:     make([]models.AnswerInput, 0, len(words)),
	}, nil
}

// Advance records the sentence for the current word. Before the last word
// it moves the cursor; on the last word it submits everything and returns
// Complete. If the set's words were replaced since they were loaded, the
// answers cannot be stored and the student goes back to SelectWordSet.
// On any error the returned state is the one to keep.
func (w *Wizard) Advance(ctx context.Context, s Answering, sentence string) (State, error) {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return s, ErrEmptySentence
	}
	if s.Index < 0 || s.Index >= len(s.Words) || len(s.Answers) != s.Index {
		return s, ErrAnswerMismatch
	}

	answers := make([]models.AnswerInput, len(s.Answers), len(s.Words))
	copy(answers, s.Answers)
	answers = append(answers, models.AnswerInput{WordID: s.Current().ID, Sentence: sentence})

	if !s.IsLast() {
		next := s
		next.Answers = answers
		next.Index++
		next.Draft = ""
		return next, nil
	}

	if err := checkAnswers(s.Words, answers); err != nil {
		return s, err
	}

	failed := s
	failed.Draft = sentence

	current, err := w.store.ListWords(ctx, s.WordSet.ID)
	if err != nil {
		return failed, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	if !sameWords(s.Words, current) {
		return SelectWordSet{
			TeacherID:   s.TeacherID,
			TeacherName: s.TeacherName,
			StudentName: s.StudentName,
		}, ErrWordsChanged
	}

	sub, err := w.store.Submit(ctx, s.WordSet.ID, s.StudentName, answers)
	if err != nil {
		return failed, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	return Complete{
		StudentName:  s.StudentName,
		WordSetTitle: s.WordSet.Title,
		SubmissionID: sub.ID,
	}, nil
}

// checkAnswers enforces one answer per loaded word, in word order
func checkAnswers(words []models.Word, answers []models.AnswerInput) error {
	if len(words) != len(answers) {
		return ErrAnswerMismatch
	}
	for i := range words {
		if words[i].ID != answers[i].WordID {
			return ErrAnswerMismatch
		}
	}
	return nil
}

func sameWords(a, b []models.Word) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
