package http

import (
	"net/http"
	"strconv"

	"github.com/km-arc/go-autowire/framework/routing"
)

// Request wraps *http.Request with input helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Query returns a query-string value or fallback when it is absent.
func (req *Request) Query(key, fallback string) string {
	if v := req.raw.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

// QueryBool parses a query-string flag; "?raw" alone counts as true.
func (req *Request) QueryBool(key string) bool {
	q := req.raw.URL.Query()
	if !q.Has(key) {
		return false
	}
	v := q.Get(key)
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// RouteParam returns a chi URL parameter.
func (req *Request) RouteParam(key string) string {
	return routing.Param(req.raw, key)
}
