package utils

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const genericServerError = "Something went wrong on our side. Please try again in a moment."

// SendJSONError aborts the request with a JSON error body and logs the
// internal error. Responses with status 5xx never carry the internal error
// text; an empty publicMsg is replaced by a generic one.
func SendJSONError(c *gin.Context, statusCode int, publicMsg string, internalError error, details ...string) {
	errorDetails := ""
	if len(details) > 0 {
		errorDetails = details[0]
	}

	if statusCode >= http.StatusInternalServerError {
		if publicMsg == "" || (internalError != nil && publicMsg == internalError.Error()) {
			publicMsg = genericServerError
		}
	}

	response := gin.H{"code": statusCode, "error": publicMsg}
	if errorDetails != "" {
		response["details"] = errorDetails
	}

	if internalError != nil {
		log.Printf("ERROR: [API] status_code=%d, public_message='%s', internal_error='%v', details='%s', path='%s'",
			statusCode, publicMsg, internalError, errorDetails, c.Request.URL.Path)
	} else {
		log.Printf("INFO: [API] status_code=%d, public_message='%s', details='%s', path='%s'",
			statusCode, publicMsg, errorDetails, c.Request.URL.Path)
	}

	c.AbortWithStatusJSON(statusCode, response)
}

// GenerateID mints an anonymous owner ID for a client that has none yet.
func GenerateID() string {
	return "anon_" + uuid.NewString()
}

// FormatTime formats t for log lines.
func FormatTime(t time.Time) string {
	return t.Format("2006/01/02 - 15:04:05")
}
