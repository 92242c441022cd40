package handlers

import (
	"net/http"

	"vocabpractice/internal/logger"
)

// respondWithError writes a plain text error. err is logged when set: at
// warn level for client errors and error level otherwise.
func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status < http.StatusInternalServerError {
			log.Warn(logMsg, "status", status, "error", err)
		} else {
			log.Error(logMsg, "status", status, "error", err)
		}
	}

	http.Error(w, userMsg, status)
}
