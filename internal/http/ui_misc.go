package httpx

import (
	"errors"
	"net/http"
)

// NotFound handles 404 errors with auth-aware behavior.
// For browser requests, it renders an HTML error page.
// For API requests, it returns a JSON error response.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) || h == nil || h.T == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("not found"),
		})
		return
	}
	h.renderErrorPage(w, r, errorPage{
		Status:  http.StatusNotFound,
		Message: "La página que busca no existe.",
	})
}
