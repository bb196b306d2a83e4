package apiclient

import (
	"net/http"

	"github.com/almacen/almacen-ui/internal/domain/auth"
)

// RequestOptions carries the default headers for a backend request.
type RequestOptions struct {
	Header http.Header
}

// BuildRequestOptions always sets Accept: application/json and adds a bearer
// Authorization header only when state holds a token.
func BuildRequestOptions(state auth.State) RequestOptions {
	h := http.Header{}
	h.Set("Accept", "application/json")
	if state.HasToken() {
		h.Set("Authorization", "Bearer "+state.Token)
	}
	return RequestOptions{Header: h}
}

// Apply copies the option headers onto req, replacing existing values.
func (o RequestOptions) Apply(req *http.Request) {
	for k, vs := range o.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}
