package models

import "time"

// Submission is one completed practice attempt by a named student
type Submission struct {
	ID          int64     `json:"id"`
	WordSetID   int64     `json:"word_set_id"`
	StudentName string    `json:"student_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Answer is the sentence a student wrote for one word
type Answer struct {
	ID           int64  `json:"id"`
	SubmissionID int64  `json:"submission_id"`
	WordID       int64  `json:"word_id"`
	Sentence     string `json:"sentence"`
}

// AnswerInput is an answer before it is stored
type AnswerInput struct {
	WordID   int64  `json:"word_id"`
	Sentence string `json:"sentence"`
}

// AnswerView is an answer joined with the word it was written for
type AnswerView struct {
	AnswerID int64
	WordID   int64
	Word     string
	Sentence string
}

// StudentAnswers is the review page for a student's latest submission
type StudentAnswers struct {
	WordSet     WordSet
	StudentName string
	Submission  *Submission
	Answers     []AnswerView
}
