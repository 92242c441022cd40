package practice

import "vocabpractice/internal/models"

// Step names a wizard state
type Step string

const (
	StepSelectTeacher Step = "select_teacher"
	StepEnterName     Step = "enter_name"
	StepSelectWordSet Step = "select_word_set"
	StepAnswering     Step = "answering"
	StepComplete      Step = "complete"
)

// State is one of SelectTeacher, EnterName, SelectWordSet, Answering or
// Complete. Each carries only the data that is valid at that step.
type State interface {
	Step() Step
}

// SelectTeacher is the initial state
type SelectTeacher struct{}

// EnterName follows a teacher choice
type EnterName struct {
	TeacherID   int64  `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
}

// SelectWordSet follows a non-blank student name
type SelectWordSet struct {
	TeacherID   int64  `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
	StudentName string `json:"student_name"`
}

// Answering walks the loaded words in position order. Answers holds one entry
// per word before Index; Draft keeps the last sentence when a final submit
// fails so it can be offered again.
type Answering struct {
	TeacherID   int64                `json:"teacher_id"`
	TeacherName string               `json:"teacher_name"`
	StudentName string               `json:"student_name"`
	WordSet     models.WordSet       `json:"word_set"`
	Words       []models.Word        `json:"words"`
	Index       int                  `json:"index"`
	Answers     []models.AnswerInput `json:"answers"`
	Draft       string               `json:"draft,omitempty"`
}

// Complete is terminal
type Complete struct {
	StudentName  string `json:"student_name"`
	WordSetTitle string `json:"word_set_title"`
	SubmissionID int64  `json:"submission_id"`
}

func (SelectTeacher) Step() Step { return StepSelectTeacher }
func (EnterName) Step() Step     { return StepEnterName }
func (SelectWordSet) Step() Step { return StepSelectWordSet }
func (Answering) Step() Step     { return StepAnswering }
func (Complete) Step() Step      { return StepComplete }

// Current returns the word being answered
func (a Answering) Current() models.Word {
	return a.Words[a.Index]
}

// Number is the 1-based position of the current word
func (a Answering) Number() int {
	return a.Index + 1
}

// Total is the number of words in the attempt
func (a Answering) Total() int {
	return len(a.Words)
}

// IsLast reports whether the current word is the final one
func (a Answering) IsLast() bool {
	return a.Index == len(a.Words)-1
}

// ProgressPercent is used for the progress bar
func (a Answering) ProgressPercent() int {
	if len(a.Words) == 0 {
		return 0
	}
	return a.Number() * 100 / len(a.Words)
}
