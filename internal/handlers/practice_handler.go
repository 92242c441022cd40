package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vocabpractice/internal/logger"
	"vocabpractice/internal/practice"
	"vocabpractice/internal/security"
)

// PracticeHandler drives the student wizard. State lives in a StateStore
// keyed by the practice_id cookie; every POST redirects back to GET /student.
type PracticeHandler struct {
	wizard    *practice.Wizard
	states    practice.StateStore
	locks     practice.Locker
	render    *Renderer
	log       *logger.Logger
	cookieTTL time.Duration
}

// NewPracticeHandler creates a new practice handler. A state store that is
// also a Locker (Redis) serializes steps across replicas; otherwise steps are
// serialized in this process.
func NewPracticeHandler(wizard *practice.Wizard, states practice.StateStore, render *Renderer, log *logger.Logger, cookieTTL time.Duration) *PracticeHandler {
	var locks practice.Locker = practice.NewKeyedMutex()
	if l, ok := states.(practice.Locker); ok {
		locks = l
	}
	return &PracticeHandler{
		wizard:    wizard,
		states:    states,
		locks:     locks,
		render:    render,
		log:       log.With("component", "practice"),
		cookieTTL: cookieTTL,
	}
}

// Show renders the page for the current step, issuing a practice id on
// the first visit.
func (h *PracticeHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, fresh := h.practiceID(r)
	http.SetCookie(w, security.CreateSessionCookie(r, PracticeCookieName, id, time.Now().Add(h.cookieTTL)))

	var state practice.State
	if !fresh {
		var err error
		state, err = h.states.Load(r.Context(), id)
		if err != nil {
			h.render.Error(w, r, "Failed to load your practice session", "/", err)
			return
		}
	}
	if state == nil {
		state = h.wizard.Start()
	}

	page := h.render.Page(w, r, "Practice")
	page.CSRFToken = h.render.Token(id)

	switch s := state.(type) {
	case practice.SelectTeacher:
		teachers, err := h.wizard.Teachers(r.Context())
		if err != nil {
			h.log.Error("failed to load teachers", "error", err)
			page.Flash = &Flash{Kind: "error", Message: "Failed to load teachers"}
		}
		h.render.Render(w, http.StatusOK, "select_teacher.tmpl", SelectTeacherViewData{Page: page, Teachers: teachers})

	case practice.EnterName:
		h.render.Render(w, http.StatusOK, "enter_name.tmpl", EnterNameViewData{Page: page, State: s})

	case practice.SelectWordSet:
		sets, err := h.wizard.WordSets(r.Context(), s)
		if err != nil {
			h.log.Error("failed to load word sets", "teacher_id", s.TeacherID, "error", err)
			page.Flash = &Flash{Kind: "error", Message: "Failed to load word sets"}
		}
		h.render.Render(w, http.StatusOK, "select_word_set.tmpl", SelectWordSetViewData{Page: page, State: s, WordSets: sets})

	case practice.Answering:
		h.render.Render(w, http.StatusOK, "answer.tmpl", AnswerViewData{Page: page, State: s, Sentence: s.Draft})

	case practice.Complete:
		h.render.Render(w, http.StatusOK, "complete.tmpl", CompleteViewData{Page: page, State: s})
	}
}

func (h *PracticeHandler) practiceID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(PracticeCookieName); err == nil && security.IsValidID(c.Value) {
		return c.Value, false
	}
	return security.GenerateSessionID(), true
}

// transition computes the next state from the stored one. On error a
// non-nil state is saved anyway; a nil state leaves the stored one untouched.
type transition func(ctx context.Context, current practice.State) (practice.State, error)

func (h *PracticeHandler) step(w http.ResponseWriter, r *http.Request, fn transition) {
	id, fresh := h.practiceID(r)
	if fresh {
		http.Redirect(w, r, "/student", http.StatusSeeOther)
		return
	}

	ctx := r.Context()
	unlock, err := h.locks.Acquire(ctx, id)
	if err != nil {
		h.render.Error(w, r, "Your practice session is busy. Please try again.", "/student", err)
		return
	}
	defer unlock()

	current, err := h.states.Load(ctx, id)
	if err != nil {
		h.render.Error(w, r, "Failed to load your practice session", "/student", err)
		return
	}
	if current == nil {
		current = h.wizard.Start()
	}

	next, err := fn(ctx, current)
	if next != nil {
		if saveErr := h.states.Save(ctx, id, next); saveErr != nil {
			h.render.Error(w, r, "Failed to save your progress", "/student", saveErr)
			return
		}
	}
	if err != nil {
		h.flashError(w, r, err)
	}
	http.Redirect(w, r, "/student", http.StatusSeeOther)
}

func (h *PracticeHandler) flashError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, practice.ErrSubmitFailed):
		h.log.Error("failed to submit answers", "error", err)
		setFlash(w, r, "error", "Failed to submit answers. Please try again.")
	case errors.Is(err, practice.ErrTeacherNotFound),
		errors.Is(err, practice.ErrEmptyName),
		errors.Is(err, practice.ErrIncompleteSelection),
		errors.Is(err, practice.ErrWordSetNotFound),
		errors.Is(err, practice.ErrNoWords),
		errors.Is(err, practice.ErrEmptySentence),
		errors.Is(err, practice.ErrAnswerMismatch),
		errors.Is(err, practice.ErrWordsChanged),
		errors.Is(err, practice.ErrWrongStep):
		setFlash(w, r, "error", capitalize(err.Error()))
	default:
		h.log.Error("practice step failed", "path", r.URL.Path, "error", err)
		setFlash(w, r, "error", "Something went wrong. Please try again.")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formID(r *http.Request, field string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(field)), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Start resets the wizard to the first step
func (h *PracticeHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(context.Context, practice.State) (practice.State, error) {
		return h.wizard.Restart(), nil
	})
}

// ChooseTeacher handles step one
func (h *PracticeHandler) ChooseTeacher(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(ctx context.Context, current practice.State) (practice.State, error) {
		s, ok := current.(practice.SelectTeacher)
		if !ok {
			return nil, practice.ErrWrongStep
		}
		next, err := h.wizard.ChooseTeacher(ctx, s, formID(r, "teacher_id"))
		if err != nil {
			return nil, err
		}
		return next, nil
	})
}

// EnterName handles step two
func (h *PracticeHandler) EnterName(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(_ context.Context, current practice.State) (practice.State, error) {
		s, ok := current.(practice.EnterName)
		if !ok {
			return nil, practice.ErrWrongStep
		}
		next, err := h.wizard.EnterName(s, r.FormValue("student_name"))
		if err != nil {
			return nil, err
		}
		return next, nil
	})
}

// ChooseWordSet handles step three
func (h *PracticeHandler) ChooseWordSet(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(ctx context.Context, current practice.State) (practice.State, error) {
		s, ok := current.(practice.SelectWordSet)
		if !ok {
			return nil, practice.ErrWrongStep
		}
		next, err := h.wizard.ChooseWordSet(ctx, s, formID(r, "word_set_id"))
		if err != nil {
			return nil, err
		}
		h.log.Info("practice started", "word_set_id", next.WordSet.ID, "words", next.Total())
		return next, nil
	})
}

// Answer records one sentence. The posted index must match the stored
// cursor so a resubmitted form cannot answer the next word.
func (h *PracticeHandler) Answer(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(ctx context.Context, current practice.State) (practice.State, error) {
		s, ok := current.(practice.Answering)
		if !ok {
			return nil, practice.ErrWrongStep
		}
		if index, err := strconv.Atoi(r.FormValue("index")); err != nil || index != s.Index {
			return nil, practice.ErrWrongStep
		}

		next, err := h.wizard.Advance(ctx, s, r.FormValue("sentence"))
		if err != nil {
			if errors.Is(err, practice.ErrSubmitFailed) || errors.Is(err, practice.ErrWordsChanged) {
				return next, err
			}
			return nil, err
		}
		if done, ok := next.(practice.Complete); ok {
			h.log.Info("answers submitted", "submission_id", done.SubmissionID, "word_set_id", s.WordSet.ID)
		}
		return next, nil
	})
}

// Done discards the finished wizard and returns to the landing page
func (h *PracticeHandler) Done(w http.ResponseWriter, r *http.Request) {
	id, fresh := h.practiceID(r)
	if !fresh {
		if err := h.states.Delete(r.Context(), id); err != nil {
			h.log.Error("failed to discard practice state", "error", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
