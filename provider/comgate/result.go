package comgate

import (
	"fmt"
	"os"

	"github.com/mstgnz/gocomgate/provider"
)

// Cause groups structured errors by where the call failed
type Cause string

const (
	CauseConnection Cause = "connection"
	CauseAPI        Cause = "api"
)

// Error is a structured gateway error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return fmt.Sprintf("[Error #%d] %s", e.Code, e.Message)
}

// Errors holds the structured errors of one call, keyed by cause
type Errors map[Cause][]Error

// Outcome is the terminal state of one gateway call
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSuccess
	OutcomeConnectionError
	OutcomeAPIError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeConnectionError:
		return "connection_error"
	case OutcomeAPIError:
		return "api_error"
	default:
		return "pending"
	}
}

// Body is the normalized response body: either a HashBody or an ArrayBody
type Body interface {
	isBody()
}

// HashBody is an object-shaped normalized body
type HashBody provider.Params

// ArrayBody is an array-shaped normalized body
type ArrayBody []provider.Params

func (HashBody) isBody()  {}
func (ArrayBody) isBody() {}

// Result is the uniform value returned for every gateway call
type Result struct {
	HTTPCode   int
	Body       Body
	RedirectTo string
	Errors     Errors
	Outcome    Outcome
}

// Hash returns the object-shaped body, or nil
func (r *Result) Hash() provider.Params {
	if h, ok := r.Body.(HashBody); ok {
		return provider.Params(h)
	}
	return nil
}

// Array returns the array-shaped body, or nil
func (r *Result) Array() []provider.Params {
	if a, ok := r.Body.(ArrayBody); ok {
		return []provider.Params(a)
	}
	return nil
}

// File returns the downloaded file of a zip response. The caller closes and removes it.
func (r *Result) File() (*os.File, bool) {
	f, ok := r.Hash()["file"].(*os.File)
	return f, ok
}

// Redirect reports whether the payer has to be sent to RedirectTo
func (r *Result) Redirect() bool {
	return r.RedirectTo != ""
}

// Failed reports whether the call ended with a connection or API error
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// FirstError returns the first structured error, connection errors first
func (r *Result) FirstError() (Error, bool) {
	for _, cause := range []Cause{CauseConnection, CauseAPI} {
		if errs := r.Errors[cause]; len(errs) > 0 {
			return errs[0], true
		}
	}
	return Error{}, false
}

// connectionFailure builds the result of a transport fault
func connectionFailure(err error) *Result {
	return &Result{
		HTTPCode: 500,
		Errors: Errors{
			CauseConnection: {{Code: 500, Message: err.Error()}},
		},
		Outcome: OutcomeConnectionError,
	}
}

// classify settles the outcome of a normalized response
func classify(httpCode int, body Body, redirectTo string) *Result {
	result := &Result{
		HTTPCode:   httpCode,
		Body:       body,
		RedirectTo: redirectTo,
		Outcome:    OutcomeSuccess,
	}

	if redirectTo != "" {
		return result
	}

	if hash := result.Hash(); hash != nil {
		if code, ok := hash["code"].(int); ok && code > 0 {
			message, _ := hash["message"].(string)
			result.Errors = Errors{CauseAPI: {{Code: code, Message: message}}}
			result.Outcome = OutcomeAPIError
			return result
		}
	}

	if httpCode >= 400 {
		result.Errors = Errors{CauseAPI: {{Code: httpCode, Message: httpStatusMessage(httpCode)}}}
		result.Outcome = OutcomeAPIError
	}

	return result
}
