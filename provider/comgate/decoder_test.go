package comgate

import (
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/mstgnz/gocomgate/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createURL = "https://payments.comgate.cz/v1.0/create"

func rawResponse(status int, contentType, body string) *provider.HTTPResponse {
	headers := http.Header{}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	return &provider.HTTPResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       []byte(body),
		RawBody:    body,
	}
}

func TestResponse_Body(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		expected    Decoded
	}{
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded; charset=UTF-8",
			body:        "code=0&message=OK&transId=AB12-CD34-EF56&redirect=https%3A%2F%2Fpayments.comgate.cz%2Fclient%2Finstructions%2Findex%3Fid%3DAB12",
			expected: ObjectBody{
				"code":     "0",
				"message":  "OK",
				"transId":  "AB12-CD34-EF56",
				"redirect": "https://payments.comgate.cz/client/instructions/index?id=AB12",
			},
		},
		{
			name:        "json_object_scalars_as_strings",
			contentType: "application/json",
			body:        `{"code":0,"message":"OK","test":true,"price":100,"fee":"unknown"}`,
			expected: ObjectBody{
				"code":    "0",
				"message": "OK",
				"test":    "true",
				"price":   "100",
				"fee":     "unknown",
			},
		},
		{
			name:        "json_nested",
			contentType: "application/json; charset=utf-8",
			body:        `{"methods":[{"id":"CARD_CZ_CSOB_2","name":"Card"}],"meta":{"count":1}}`,
			expected: ObjectBody{
				"methods": []any{map[string]any{"id": "CARD_CZ_CSOB_2", "name": "Card"}},
				"meta":    map[string]any{"count": "1"},
			},
		},
		{
			name:        "json_array",
			contentType: "application/json",
			body:        `[{"transferId":1234567,"transferDate":"2023-01-02"},{"transferId":1234568,"transferDate":"2023-01-02"}]`,
			expected: ListBody{
				{"transferId": "1234567", "transferDate": "2023-01-02"},
				{"transferId": "1234568", "transferDate": "2023-01-02"},
			},
		},
		{
			name:        "empty_json",
			contentType: "application/json",
			body:        "  ",
			expected:    ObjectBody{},
		},
		{
			name:        "empty_body_unknown_type",
			contentType: "text/html",
			body:        "",
			expected:    ObjectBody{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewResponse(rawResponse(http.StatusOK, tt.contentType, tt.body), createURL)

			body, err := resp.Body()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, body)
		})
	}
}

func TestResponse_Body_Errors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"unsupported_content_type", "text/html", "<html>maintenance</html>"},
		{"invalid_json", "application/json", `{"code":`},
		{"json_scalar", "application/json", `"OK"`},
		{"json_array_of_scalars", "application/json", `[1,2]`},
		{"json_trailing_value", "application/json", `{"code":0} {"code":1400}`},
		{"json_trailing_garbage", "application/json", `{"code":0} x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewResponse(rawResponse(http.StatusOK, tt.contentType, tt.body), createURL)

			body, err := resp.Body()
			assert.Error(t, err)
			assert.Nil(t, body)
		})
	}

	resp := NewResponse(rawResponse(http.StatusOK, "text/plain", "hello"), createURL)
	_, err := resp.Body()
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestResponse_Body_Zip(t *testing.T) {
	content := "PK\x03\x04 zipped statement"
	resp := NewResponse(rawResponse(http.StatusOK, "application/zip", content), createURL)

	body, err := resp.Body()
	require.NoError(t, err)

	obj, ok := body.(ObjectBody)
	require.True(t, ok)
	file, ok := obj["file"].(*os.File)
	require.True(t, ok)
	t.Cleanup(func() {
		file.Close()
		os.Remove(file.Name())
	})

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, content, string(data), "file must be readable from position 0")
}

func TestResponse_RedirectTo(t *testing.T) {
	tests := []struct {
		name     string
		raw      *provider.HTTPResponse
		expected string
	}{
		{
			name: "absolute_location",
			raw: func() *provider.HTTPResponse {
				r := rawResponse(http.StatusFound, "", "")
				r.Headers.Set("Location", "https://payments.comgate.cz/client/instructions/index?id=AB12")
				return r
			}(),
			expected: "https://payments.comgate.cz/client/instructions/index?id=AB12",
		},
		{
			name: "relative_location",
			raw: func() *provider.HTTPResponse {
				r := rawResponse(http.StatusSeeOther, "", "")
				r.Headers.Set("Location", "/client/instructions/index?id=AB12")
				return r
			}(),
			expected: "https://payments.comgate.cz/client/instructions/index?id=AB12",
		},
		{
			name: "location_wins_over_body",
			raw: func() *provider.HTTPResponse {
				r := rawResponse(http.StatusFound, "application/x-www-form-urlencoded", "redirect=https%3A%2F%2Fexample.com")
				r.Headers.Set("Location", "https://payments.comgate.cz/pay")
				return r
			}(),
			expected: "https://payments.comgate.cz/pay",
		},
		{
			name:     "body_redirect_on_200",
			raw:      rawResponse(http.StatusOK, "application/x-www-form-urlencoded", "code=0&redirect=https%3A%2F%2Fpayments.comgate.cz%2Fpay"),
			expected: "https://payments.comgate.cz/pay",
		},
		{
			name:     "body_redirect_ignored_on_error_status",
			raw:      rawResponse(http.StatusBadRequest, "application/x-www-form-urlencoded", "code=1400&redirect=https%3A%2F%2Fpayments.comgate.cz%2Fpay"),
			expected: "",
		},
		{
			name:     "no_redirect",
			raw:      rawResponse(http.StatusOK, "application/x-www-form-urlencoded", "code=0&message=OK"),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewResponse(tt.raw, createURL)

			target, err := resp.RedirectTo()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, target)
		})
	}
}

func TestResponse_RedirectStatusHasEmptyBody(t *testing.T) {
	raw := rawResponse(http.StatusFound, "text/html", "<a href=\"/pay\">moved</a>")
	raw.Headers.Set("Location", "/pay")

	body, err := NewResponse(raw, createURL).Body()
	require.NoError(t, err)
	assert.Equal(t, ObjectBody{}, body)
}

func TestResponse_DecodesOnce(t *testing.T) {
	raw := rawResponse(http.StatusOK, "application/x-www-form-urlencoded", "code=0&message=OK")
	resp := NewResponse(raw, createURL)

	first, err := resp.Body()
	require.NoError(t, err)

	raw.Body = []byte("code=1400")
	second, err := resp.Body()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, http.StatusOK, resp.HTTPCode())
}

func TestHTTPStatusMessage(t *testing.T) {
	assert.Equal(t, "not found", httpStatusMessage(http.StatusNotFound))
	assert.Equal(t, "internal server error", httpStatusMessage(http.StatusInternalServerError))
	assert.Equal(t, "http status 599", httpStatusMessage(599))
}
