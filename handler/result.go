package handler

import (
	"errors"
	"net/http"

	"github.com/mstgnz/gocomgate/infra/response"
	"github.com/mstgnz/gocomgate/provider/comgate"
)

// ResultView is the JSON shape of a gateway result
type ResultView struct {
	HTTPCode   int            `json:"http_code"`
	Outcome    string         `json:"outcome"`
	RedirectTo string         `json:"redirect_to,omitempty"`
	Body       comgate.Body   `json:"body,omitempty"`
	Errors     comgate.Errors `json:"errors,omitempty"`
}

func viewOf(result *comgate.Result) ResultView {
	return ResultView{
		HTTPCode:   result.HTTPCode,
		Outcome:    result.Outcome.String(),
		RedirectTo: result.RedirectTo,
		Body:       result.Body,
		Errors:     result.Errors,
	}
}

// writeResult maps a gateway call onto an HTTP response
func writeResult(w http.ResponseWriter, message string, result *comgate.Result, err error) {
	if err != nil {
		var missing *comgate.MissingFieldsError
		if errors.As(err, &missing) {
			response.Error(w, http.StatusBadRequest, "Missing payment fields", err)
			return
		}
		response.Error(w, http.StatusBadGateway, "Gateway call failed", err)
		return
	}

	switch result.Outcome {
	case comgate.OutcomeConnectionError:
		_ = response.WriteJSON(w, http.StatusBadGateway, response.Response{
			Success: false,
			Message: "Gateway unreachable",
			Error:   firstErrorMessage(result),
			Data:    viewOf(result),
		})
	case comgate.OutcomeAPIError:
		_ = response.WriteJSON(w, http.StatusUnprocessableEntity, response.Response{
			Success: false,
			Message: "Gateway rejected the request",
			Error:   firstErrorMessage(result),
			Data:    viewOf(result),
		})
	default:
		response.Success(w, http.StatusOK, message, viewOf(result))
	}
}

func firstErrorMessage(result *comgate.Result) string {
	if gatewayErr, ok := result.FirstError(); ok {
		return gatewayErr.Error()
	}
	return ""
}
