package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmylchreest/itscooked/internal/logger"
)

// ErrorCode classifies an API error for clients.
type ErrorCode string

const (
	CodeUnauthorized ErrorCode = "unauthorized"
	CodeForbidden    ErrorCode = "forbidden"
	CodeNotFound     ErrorCode = "not_found"
	CodeValidation   ErrorCode = "validation_error"
	CodeBadRequest   ErrorCode = "bad_request"
	CodeConflict     ErrorCode = "conflict"
	CodeServerError  ErrorCode = "server_error"
)

// apiError is an error with an HTTP status and a client-facing message.
type apiError struct {
	Status   int
	Code     ErrorCode
	Message  string
	Details  any
	Existing *recipeRef
}

func (e *apiError) Error() string {
	return e.Message
}

// recipeRef points a duplicate import at the recipe already saved.
type recipeRef struct {
	ID    string  `json:"id"`
	Title *string `json:"title"`
}

type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Message        string      `json:"message"`
	Error          errorDetail `json:"error"`
	ExistingRecipe *recipeRef  `json:"existingRecipe,omitempty"`
}

func unauthorized(message string) *apiError {
	return &apiError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func notFound() *apiError {
	return &apiError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "Not found."}
}

func validationError(message string, details any) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

func badRequest(message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message}
}

func conflict(message string, existing *recipeRef) *apiError {
	return &apiError{Status: http.StatusConflict, Code: CodeConflict, Message: message, Existing: existing}
}

// abortWithError writes err as an error response. Errors that are not
// *apiError are logged and reported as a generic server error.
func abortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		apiErr = &apiError{
			Status:  http.StatusInternalServerError,
			Code:    CodeServerError,
			Message: "Unexpected server error.",
		}
	}

	c.AbortWithStatusJSON(apiErr.Status, errorResponse{
		Message: apiErr.Message,
		Error: errorDetail{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
		ExistingRecipe: apiErr.Existing,
	})
}
