package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfTestHandler() http.Handler {
	return CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(GetCSRFToken(r)))
	}))
}

func csrfCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	resp := rec.Result()
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name == DefaultCSRFCookieName {
			return c
		}
	}
	return nil
}

func TestCSRFProtection_GetIssuesToken(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfTestHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	ck := csrfCookieFrom(t, rec)
	require.NotNil(t, ck, "CSRF cookie not set")
	assert.NotEmpty(t, ck.Value)
	assert.False(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Equal(t, ck.Value, rec.Body.String(), "token exposed through the request context")
}

func TestCSRFProtection_ExistingCookieReused(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec := httptest.NewRecorder()
	csrfTestHandler().ServeHTTP(rec, req)

	assert.Nil(t, csrfCookieFrom(t, rec))
	assert.Equal(t, "existing", rec.Body.String())
}

func TestCSRFProtection_PostValidation(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *http.Request
		status int
	}{
		{
			name: "no token",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/", nil)
			},
			status: http.StatusForbidden,
		},
		{
			name: "header token",
			build: func() *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/", nil)
				req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
				req.Header.Set(DefaultCSRFHeaderName, "tok")
				return req
			},
			status: http.StatusOK,
		},
		{
			name: "form token",
			build: func() *http.Request {
				form := url.Values{DefaultCSRFCookieName: {"tok"}}
				req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
				return req
			},
			status: http.StatusOK,
		},
		{
			name: "mismatched token",
			build: func() *http.Request {
				req := httptest.NewRequest(http.MethodDelete, "/", nil)
				req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
				req.Header.Set(DefaultCSRFHeaderName, "other")
				return req
			},
			status: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			csrfTestHandler().ServeHTTP(rec, tt.build())
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCSRFProtection_JSONFailureForAPIClients(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/productos", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	BrowserDetection()(csrfTestHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"csrf_failed","message":"CSRF token validation failed"}`, rec.Body.String())
}
