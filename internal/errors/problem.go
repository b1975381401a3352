package errors

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// Problem is an RFC 7807 problem details body carrying the AppError code
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Code     string `json:"code"`
	TraceID  string `json:"trace_id,omitempty"`
}

// Render implements the render.Renderer interface
func (p *Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

// ToProblem converts an error to problem details for the given request path
func ToProblem(err error, instance string) *Problem {
	code := GetCode(err)
	if code == "" {
		code = CodeInternalError
	}
	status := HTTPStatus(err)
	p := &Problem{
		Type:     "/errors/" + strings.ReplaceAll(strings.ToLower(code), "_", "-"),
		Title:    http.StatusText(status),
		Status:   status,
		Instance: instance,
		Code:     code,
	}
	// internal failures keep their detail in the logs
	if status < http.StatusInternalServerError {
		p.Detail = err.Error()
	}
	return p
}
