package handlers

import (
	"vocabpractice/internal/models"
	"vocabpractice/internal/practice"
)

// Flash is a one-shot notification carried across a redirect
type Flash struct {
	Kind    string
	Message string
}

// Page holds the fields the shared header reads
type Page struct {
	Title     string
	Teacher   *models.Teacher
	CSRFToken string
	Flash     *Flash
}

type HomeViewData struct {
	Page
}

type MessageViewData struct {
	Page
	Message string
	Back    string
}

type LoginViewData struct {
	Page
	OAuthProviders []OAuthProviderView
	Error          string
	Email          string
	Success        string
}

type RegisterViewData struct {
	Page
	OAuthProviders []OAuthProviderView
	Error          string
	Email          string
	Name           string
}

type ForgotPasswordViewData struct {
	Page
	Success string
	Error   string
}

type ResetPasswordViewData struct {
	Page
	Token string
	Valid bool
	Error string
}

type SelectTeacherViewData struct {
	Page
	Teachers []models.TeacherOption
}

type EnterNameViewData struct {
	Page
	State practice.EnterName
}

type SelectWordSetViewData struct {
	Page
	State    practice.SelectWordSet
	WordSets []models.WordSet
}

type AnswerViewData struct {
	Page
	State    practice.Answering
	Sentence string
}

type CompleteViewData struct {
	Page
	State practice.Complete
}

type DashboardViewData struct {
	Page
	WordSets []models.WordSetSummary
}

type WordSetFormViewData struct {
	Page
	SetTitle string
	Words    string
	Error    string
}

type WordSetDetailViewData struct {
	Page
	Detail *models.WordSetDetail
}

type WordSetEditViewData struct {
	Page
	WordSet models.WordSet
	Words   string
	Error   string
}

type ConfirmViewData struct {
	Page
	Heading string
	Message string
	Action  string
	Confirm string
	Cancel  string
}

type StudentAnswersViewData struct {
	Page
	Review *models.StudentAnswers
}
