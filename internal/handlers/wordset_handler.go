package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vocabpractice/internal/logger"
	"vocabpractice/internal/models"
	"vocabpractice/internal/service"
	"vocabpractice/internal/validation"
)

// WordSetHandler serves the teacher's word set manager pages
type WordSetHandler struct {
	sets   *service.WordSetService
	render *Renderer
	log    *logger.Logger
}

// NewWordSetHandler creates a new word set handler
func NewWordSetHandler(sets *service.WordSetService, render *Renderer, log *logger.Logger) *WordSetHandler {
	return &WordSetHandler{sets: sets, render: render, log: log.With("component", "word_sets")}
}

func currentTeacher(r *http.Request) *models.Teacher {
	return SessionFromContext(r.Context()).Teacher
}

func wordSetID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func wordSetPath(id int64) string {
	return fmt.Sprintf("/teacher/word-sets/%d", id)
}

// inputMessage returns the text to show for a user input error, or "" when
// err is not one.
func inputMessage(err error) string {
	var ve validation.ValidationError
	switch {
	case errors.As(err, &ve):
		return capitalize(ve.Message)
	case errors.Is(err, service.ErrNoWords), errors.Is(err, service.ErrStudentRequired):
		return capitalize(err.Error())
	}
	return ""
}

// failed handles errors shared by every manager page
func (h *WordSetHandler) failed(w http.ResponseWriter, r *http.Request, userMsg string, err error) {
	if errors.Is(err, service.ErrWordSetNotFound) {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	h.log.Error(userMsg, "path", r.URL.Path, "error", err)
	setFlash(w, r, "error", userMsg)
	http.Redirect(w, r, "/teacher/dashboard", http.StatusSeeOther)
}

// Dashboard lists the teacher's word sets with counts
func (h *WordSetHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := h.render.Page(w, r, "Dashboard")
	summaries, err := h.sets.Dashboard(r.Context(), currentTeacher(r).ID)
	if err != nil {
		h.log.Error("failed to load word sets", "error", err)
		page.Flash = &Flash{Kind: "error", Message: "Failed to load word sets"}
	}
	h.render.Render(w, http.StatusOK, "dashboard.tmpl", DashboardViewData{Page: page, WordSets: summaries})
}

// NewForm renders the create form
func (h *WordSetHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "word_set_new.tmpl", WordSetFormViewData{Page: h.render.Page(w, r, "New word set")})
}

// Create stores a new word set from the title and one-word-per-line textarea
func (h *WordSetHandler) Create(w http.ResponseWriter, r *http.Request) {
	title := r.FormValue("title")
	body := r.FormValue("words")

	set, err := h.sets.CreateWordSet(r.Context(), currentTeacher(r).ID, title, validation.SplitWordLines(body))
	if err != nil {
		if msg := inputMessage(err); msg != "" {
			h.render.Render(w, http.StatusOK, "word_set_new.tmpl", WordSetFormViewData{
				Page:     h.render.Page(w, r, "New word set"),
				SetTitle: title,
				Words:    body,
				Error:    msg,
			})
			return
		}
		h.failed(w, r, "Failed to create word set", err)
		return
	}

	setFlash(w, r, "success", fmt.Sprintf("Word set %q created", set.Title))
	http.Redirect(w, r, wordSetPath(set.ID), http.StatusSeeOther)
}

// Detail shows the words and submissions of one set
func (h *WordSetHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := wordSetID(r)
	if !ok {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	detail, err := h.sets.Detail(r.Context(), currentTeacher(r).ID, id)
	if err != nil {
		h.failed(w, r, "Failed to load word set", err)
		return
	}
	h.render.Render(w, http.StatusOK, "word_set_detail.tmpl", WordSetDetailViewData{
		Page:   h.render.Page(w, r, detail.WordSet.Title),
		Detail: detail,
	})
}

// EditForm renders the replace-words form prefilled with the current list
func (h *WordSetHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := wordSetID(r)
	if !ok {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	detail, err := h.sets.Detail(r.Context(), currentTeacher(r).ID, id)
	if err != nil {
		h.failed(w, r, "Failed to load word set", err)
		return
	}
	h.render.Render(w, http.StatusOK, "word_set_edit.tmpl", WordSetEditViewData{
		Page:    h.render.Page(w, r, "Edit "+detail.WordSet.Title),
		WordSet: detail.WordSet,
		Words:   strings.Join(detail.WordTexts(), "\n"),
	})
}

// ReplaceWords saves the edited list
func (h *WordSetHandler) ReplaceWords(w http.ResponseWriter, r *http.Request) {
	id, ok := wordSetID(r)
	if !ok {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	teacher := currentTeacher(r)
	body := r.FormValue("words")

	if _, err := h.sets.ReplaceWords(r.Context(), teacher.ID, id, validation.SplitWordLines(body)); err != nil {
		if msg := inputMessage(err); msg != "" {
			detail, derr := h.sets.Detail(r.Context(), teacher.ID, id)
			if derr != nil {
				h.failed(w, r, "Failed to load word set", derr)
				return
			}
			h.render.Render(w, http.StatusOK, "word_set_edit.tmpl", WordSetEditViewData{
				Page:    h.render.Page(w, r, "Edit "+detail.WordSet.Title),
				WordSet: detail.WordSet,
				Words:   body,
				Error:   msg,
			})
			return
		}
		h.failed(w, r, "Failed to save words", err)
		return
	}

	setFlash(w, r, "success", "Words updated")
	http.Redirect(w, r, wordSetPath(id), http.StatusSeeOther)
}

// ConfirmDelete asks before deleting a set
func (h *WordSetHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := wordSetID(r)
	if !ok {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	detail, err := h.sets.Detail(r.Context(), currentTeacher(r).ID, id)
	if err != nil {
		h.failed(w, r, "Failed to load word set", err)
		return
	}
	h.render.Render(w, http.StatusOK, "confirm.tmpl", ConfirmViewData{
		Page:    h.render.Page(w, r, "Delete word set"),
		Heading: fmt.Sprintf("Delete %q?", detail.WordSet.Title),
		Message: fmt.Sprintf("This permanently removes %d words and %d submissions.", len(detail.Words), len(detail.Submissions)),
		Action:  wordSetPath(id) + "/delete",
		Confirm: "Delete word set",
		Cancel:  wordSetPath(id),
	})
}

// Delete removes a set once confirmed
func (h *WordSetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := wordSetID(r)
	if !ok {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	if r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, wordSetPath(id)+"/delete", http.StatusSeeOther)
		return
	}

	if err := h.sets.DeleteWordSet(r.Context(), currentTeacher(r).ID, id); err != nil {
		h.failed(w, r, "Failed to delete word set", err)
		return
	}
	setFlash(w, r, "success", "Word set deleted")
	http.Redirect(w, r, "/teacher/dashboard", http.StatusSeeOther)
}

func studentPath(id int64, studentName string) string {
	return wordSetPath(id) + "/student/" + url.PathEscape(studentName)
}

// ConfirmRestart asks before clearing a student's submissions
func (h *WordSetHandler) ConfirmRestart(w http.ResponseWriter, r *http.Request) {
	id, ok := wordSetID(r)
	if !ok {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	student := r.PathValue("studentName")
	review, err := h.sets.StudentAnswers(r.Context(), currentTeacher(r).ID, id, student)
	if err != nil {
		h.failed(w, r, "Failed to load word set", err)
		return
	}
	h.render.Render(w, http.StatusOK, "confirm.tmpl", ConfirmViewData{
		Page:    h.render.Page(w, r, "Restart student"),
		Heading: fmt.Sprintf("Restart %s?", student),
		Message: fmt.Sprintf("All of %s's submissions for %q will be deleted so they can practice it again.", student, review.WordSet.Title),
		Action:  studentPath(id, student) + "/restart",
		Confirm: "Restart student",
		Cancel:  wordSetPath(id),
	})
}

// Restart clears a student's submissions once confirmed
func (h *WordSetHandler) Restart(w http.ResponseWriter, r *http.Request) {
	id, ok := wordSetID(r)
	if !ok {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	student := r.PathValue("studentName")
	if r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, studentPath(id, student)+"/restart", http.StatusSeeOther)
		return
	}

	if _, err := h.sets.RestartStudent(r.Context(), currentTeacher(r).ID, id, student); err != nil {
		if msg := inputMessage(err); msg != "" {
			setFlash(w, r, "error", msg)
			http.Redirect(w, r, wordSetPath(id), http.StatusSeeOther)
			return
		}
		h.failed(w, r, "Failed to restart student", err)
		return
	}
	setFlash(w, r, "success", student+" can practice this word set again")
	http.Redirect(w, r, wordSetPath(id), http.StatusSeeOther)
}

// StudentAnswers shows a student's latest submission
func (h *WordSetHandler) StudentAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := wordSetID(r)
	if !ok {
		h.render.NotFound(w, r, "Word set not found", "/teacher/dashboard")
		return
	}
	student := r.PathValue("studentName")
	review, err := h.sets.StudentAnswers(r.Context(), currentTeacher(r).ID, id, student)
	if err != nil {
		h.failed(w, r, "Failed to load answers", err)
		return
	}
	h.render.Render(w, http.StatusOK, "student_answers.tmpl", StudentAnswersViewData{
		Page:   h.render.Page(w, r, student),
		Review: review,
	})
}
