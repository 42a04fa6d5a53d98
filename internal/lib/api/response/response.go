package response

import (
	"net/http"

	"blog-api/internal/domain/models"
	"blog-api/internal/lib/api/validate"

	"github.com/go-chi/render"
)

const (
	StatusOk    = "OK"
	StatusError = "Error"
)

type Response struct {
	Status  string          `json:"status"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Fields  validate.Fields `json:"fields,omitempty"`
}

// Auth is returned by register and login.
type Auth struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func OK(msg string) Response {
	return Response{
		Status:  StatusOk,
		Message: msg,
	}
}

func Err(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ValidationError(fields validate.Fields) Response {
	return Response{
		Status: StatusError,
		Error:  "The given data was invalid.",
		Fields: fields,
	}
}

// Fail writes an error body with the given status code.
func Fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Err(msg))
}

func Invalid(w http.ResponseWriter, r *http.Request, fields validate.Fields) {
	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, ValidationError(fields))
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	render.NoContent(w, r)
}
