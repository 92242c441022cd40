package practice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabpractice/internal/models"
)

type submitCall struct {
	wordSetID   int64
	studentName string
	answers     []models.AnswerInput
}

type fakeStore struct {
	teachers  []models.TeacherOption
	sets      map[int64]models.WordSet
	words     map[int64][]models.Word
	submitErr error
	listErr   error
	submits   []submitCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		teachers: []models.TeacherOption{{ID: 1, FullName: "Ms Smith"}, {ID: 2, FullName: "Mr Jones"}},
		sets: map[int64]models.WordSet{
			10: {ID: 10, Title: "Fruit", TeacherID: 1},
			11: {ID: 11, Title: "Empty", TeacherID: 1},
			20: {ID: 20, Title: "Other", TeacherID: 2},
		},
		words: map[int64][]models.Word{
			10: {
				{ID: 100, WordSetID: 10, Word: "apple", Position: 0},
				{ID: 101, WordSetID: 10, Word: "banana", Position: 1},
			},
			20: {{ID: 200, WordSetID: 20, Word: "x", Position: 0}},
		},
	}
}

func (f *fakeStore) ListTeachers(context.Context) ([]models.TeacherOption, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.teachers, nil
}

func (f *fakeStore) ListWordSets(_ context.Context, teacherID int64) ([]models.WordSet, error) {
	var sets []models.WordSet
	for _, s := range f.sets {
		if s.TeacherID == teacherID {
			sets = append(sets, s)
		}
	}
	return sets, nil
}

func (f *fakeStore) GetWordSet(_ context.Context, id int64) (*models.WordSet, error) {
	s, ok := f.sets[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStore) ListWords(_ context.Context, wordSetID int64) ([]models.Word, error) {
	return f.words[wordSetID], nil
}

func (f *fakeStore) Submit(_ context.Context, wordSetID int64, studentName string, answers []models.AnswerInput) (*models.Submission, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submits = append(f.submits, submitCall{wordSetID: wordSetID, studentName: studentName, answers: answers})
	return &models.Submission{ID: int64(len(f.submits)), WordSetID: wordSetID, StudentName: studentName}, nil
}

func answeringFruit(t *testing.T, w *Wizard) Answering {
	t.Helper()
	ctx := context.Background()
	enter, err := w.ChooseTeacher(ctx, w.Start(), 1)
	require.NoError(t, err)
	pick, err := w.EnterName(enter, "  Sarah Johnson ")
	require.NoError(t, err)
	answering, err := w.ChooseWordSet(ctx, pick, 10)
	require.NoError(t, err)
	return answering
}

func TestFullPracticeFlow(t *testing.T) {
	store := newFakeStore()
	w := NewWizard(store)
	ctx := context.Background()

	teachers, err := w.Teachers(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 2)

	enter, err := w.ChooseTeacher(ctx, w.Start(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ms Smith", enter.TeacherName)

	pick, err := w.EnterName(enter, "Sarah Johnson")
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", pick.StudentName)

	sets, err := w.WordSets(ctx, pick)
	require.NoError(t, err)
	assert.Len(t, sets, 2)

	answering, err := w.ChooseWordSet(ctx, pick, 10)
	require.NoError(t, err)
	assert.Equal(t, "apple", answering.Current().Word)
	assert.Equal(t, 1, answering.Number())
	assert.Equal(t, 2, answering.Total())
	assert.Equal(t, 50, answering.ProgressPercent())

	next, err := w.Advance(ctx, answering, "I ate an apple.")
	require.NoError(t, err)
	second, ok := next.(Answering)
	require.True(t, ok, "expected Answering, got %T", next)
	assert.Equal(t, "banana", second.Current().Word)
	assert.True(t, second.IsLast())

	done, err := w.Advance(ctx, second, "  Bananas are yellow.  ")
	require.NoError(t, err)
	complete, ok := done.(Complete)
	require.True(t, ok, "expected Complete, got %T", done)
	assert.Equal(t, "Fruit", complete.WordSetTitle)
	assert.Equal(t, StepComplete, complete.Step())

	require.Len(t, store.submits, 1)
	call := store.submits[0]
	assert.Equal(t, int64(10), call.wordSetID)
	assert.Equal(t, "Sarah Johnson", call.studentName)
	assert.Equal(t, []models.AnswerInput{
		{WordID: 100, Sentence: "I ate an apple."},
		{WordID: 101, Sentence: "Bananas are yellow."},
	}, call.answers)

	assert.Equal(t, SelectTeacher{}, w.Restart())
}

func TestChooseTeacher(t *testing.T) {
	w := NewWizard(newFakeStore())
	ctx := context.Background()

	_, err := w.ChooseTeacher(ctx, SelectTeacher{}, 0)
	assert.ErrorIs(t, err, ErrTeacherNotFound)

	_, err = w.ChooseTeacher(ctx, SelectTeacher{}, 99)
	assert.ErrorIs(t, err, ErrTeacherNotFound)

	store := newFakeStore()
	store.listErr = errors.New("db down")
	_, err = NewWizard(store).ChooseTeacher(ctx, SelectTeacher{}, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTeacherNotFound)
}

func TestEnterNameRejectsBlank(t *testing.T) {
	w := NewWizard(newFakeStore())
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := w.EnterName(EnterName{TeacherID: 1}, name)
		assert.ErrorIs(t, err, ErrEmptyName, "name %q", name)
	}
}

func TestChooseWordSetValidation(t *testing.T) {
	w := NewWizard(newFakeStore())
	ctx := context.Background()
	pick := SelectWordSet{TeacherID: 1, TeacherName: "Ms Smith", StudentName: "Sam"}

	tests := []struct {
		name      string
		state     SelectWordSet
		wordSetID int64
		wantErr   error
	}{
		{"missing word set", pick, 0, ErrIncompleteSelection},
		{"missing teacher", SelectWordSet{StudentName: "Sam"}, 10, ErrIncompleteSelection},
		{"blank student", SelectWordSet{TeacherID: 1, StudentName: " "}, 10, ErrIncompleteSelection},
		{"unknown set", pick, 404, ErrWordSetNotFound},
		{"another teacher's set", pick, 20, ErrWordSetNotFound},
		{"set without words", pick, 11, ErrNoWords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.ChooseWordSet(ctx, tt.state, tt.wordSetID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdvanceRejectsEmptySentence(t *testing.T) {
	store := newFakeStore()
	w := NewWizard(store)
	answering := answeringFruit(t, w)

	got, err := w.Advance(context.Background(), answering, "   ")
	assert.ErrorIs(t, err, ErrEmptySentence)
	assert.Equal(t, answering, got, "state must not change")
	assert.Empty(t, store.submits)
}

func TestFailedSubmitKeepsAnswersAndRetries(t *testing.T) {
	store := newFakeStore()
	w := NewWizard(store)
	ctx := context.Background()

	first, err := w.Advance(ctx, answeringFruit(t, w), "Apple sentence.")
	require.NoError(t, err)
	last := first.(Answering)

	store.submitErr = errors.New("connection reset")
	failed, err := w.Advance(ctx, last, "Banana sentence.")
	require.ErrorIs(t, err, ErrSubmitFailed)

	stay, ok := failed.(Answering)
	require.True(t, ok, "expected to stay in Answering, got %T", failed)
	assert.Equal(t, 1, stay.Index)
	assert.Len(t, stay.Answers, 1, "the last answer is not committed until submit succeeds")
	assert.Equal(t, "Banana sentence.", stay.Draft)

	store.submitErr = nil
	done, err := w.Advance(ctx, stay, stay.Draft)
	require.NoError(t, err)
	assert.IsType(t, Complete{}, done)

	require.Len(t, store.submits, 1)
	answers := store.submits[0].answers
	require.Len(t, answers, 2, "no duplicate answers after a retry")
	assert.Equal(t, int64(100), answers[0].WordID)
	assert.Equal(t, int64(101), answers[1].WordID)
}

func TestReplacedWordsSendStudentBackToWordSets(t *testing.T) {
	store := newFakeStore()
	w := NewWizard(store)
	ctx := context.Background()

	first, err := w.Advance(ctx, answeringFruit(t, w), "Apple sentence.")
	require.NoError(t, err)

	store.words[10] = []models.Word{
		{ID: 102, WordSetID: 10, Word: "cherry", Position: 0},
		{ID: 103, WordSetID: 10, Word: "grape", Position: 1},
	}

	for attempt := 0; attempt < 2; attempt++ {
		next, err := w.Advance(ctx, first.(Answering), "Banana sentence.")
		require.ErrorIs(t, err, ErrWordsChanged)
		assert.Equal(t, SelectWordSet{TeacherID: 1, TeacherName: "Ms Smith", StudentName: "Sarah Johnson"}, next)
	}
	assert.Empty(t, store.submits)

	again, err := w.ChooseWordSet(ctx, SelectWordSet{TeacherID: 1, TeacherName: "Ms Smith", StudentName: "Sarah Johnson"}, 10)
	require.NoError(t, err)
	assert.Equal(t, "cherry", again.Current().Word)
}

func TestAdvanceDoesNotAliasPreviousState(t *testing.T) {
	store := newFakeStore()
	w := NewWizard(store)
	ctx := context.Background()
	start := answeringFruit(t, w)

	a, err := w.Advance(ctx, start, "first try")
	require.NoError(t, err)
	b, err := w.Advance(ctx, start, "second try")
	require.NoError(t, err)

	assert.Empty(t, start.Answers)
	assert.Equal(t, "first try", a.(Answering).Answers[0].Sentence)
	assert.Equal(t, "second try", b.(Answering).Answers[0].Sentence)
}

func TestAdvanceRejectsInconsistentState(t *testing.T) {
	w := NewWizard(newFakeStore())
	bad := answeringFruit(t, w)
	bad.Index = 1

	_, err := w.Advance(context.Background(), bad, "sentence")
	assert.ErrorIs(t, err, ErrAnswerMismatch)
}

func TestCheckAnswers(t *testing.T) {
	words := []models.Word{{ID: 1}, {ID: 2}}
	assert.NoError(t, checkAnswers(words, []models.AnswerInput{{WordID: 1}, {WordID: 2}}))
	assert.ErrorIs(t, checkAnswers(words, []models.AnswerInput{{WordID: 2}, {WordID: 1}}), ErrAnswerMismatch)
	assert.ErrorIs(t, checkAnswers(words, []models.AnswerInput{{WordID: 1}}), ErrAnswerMismatch)
}
