package handlers

const (
	SessionCookieName  = "session_id"
	PracticeCookieName = "practice_id"
	FlashCookieName    = "flash"

	csrfFormField = "csrf_token"

	ErrInvalidFormData     = "Invalid form data"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, please try again later"
	ErrInternalServerError = "Internal server error"
)
