package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/cardnote/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_DecodeBody(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "ok", body: `{"email":"a@b.com"}`},
		{name: "empty", body: "", wantMsg: "Request body is required"},
		{name: "unknown field", body: `{"email":"a@b.com","x":1}`, wantMsg: "Invalid request body"},
		{name: "trailing data", body: `{"email":"a@b.com"} {}`, wantMsg: "Invalid request body"},
		{name: "too large", body: `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`, wantMsg: "Request body is too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}

			var dst payload
			err := req.DecodeBody(&dst)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, "a@b.com", dst.Email)
				return
			}

			var gerr *goerror.Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, goerror.CodeInvalidFormat, gerr.Code())
			assert.Equal(t, tt.wantMsg, gerr.Msg())
		})
	}
}

func TestRequest_GetQuery(t *testing.T) {
	req := &Request{Request: httptest.NewRequest(http.MethodGet, "/?email=%20a@b.com%20", nil)}
	assert.Equal(t, "a@b.com", req.GetQuery("email"))
	assert.Empty(t, req.GetQuery("missing"))
}
