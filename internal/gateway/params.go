// ABOUTME: Request parameter merging for API handlers
// ABOUTME: Path values, query string and JSON body are read as one named set

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/2389/folio/internal/fault"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// params holds the request's named arguments. Later sources win: query
// values override body fields and path values override both.
type params struct {
	values map[string]any
	r      *http.Request
}

func readParams(w http.ResponseWriter, r *http.Request) (*params, error) {
	p := &params{values: map[string]any{}, r: r}

	if r.Body != nil && r.ContentLength != 0 {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, &fault.ValidationError{Field: "body", Reason: "is too large"}
			}
			return nil, err
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &p.values); err != nil {
				return nil, &fault.ValidationError{Field: "body", Reason: "is not a JSON object"}
			}
		}
	}

	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			p.values[k] = vs[0]
		}
	}
	return p, nil
}

// path returns a path wildcard, falling back to the merged values.
func (p *params) path(name string) string {
	if v := p.r.PathValue(name); v != "" {
		return v
	}
	return p.str(name)
}

// str returns a string argument, or "" when absent.
func (p *params) str(name string) string {
	s, _ := p.values[name].(string)
	return s
}

// optStr returns nil when the argument is absent.
func (p *params) optStr(name string) *string {
	v, ok := p.values[name]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// optBool accepts a JSON boolean or a "true"/"false" string.
func (p *params) optBool(name string) (*bool, error) {
	v, ok := p.values[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case bool:
		return &t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return nil, &fault.ValidationError{Field: name, Reason: "must be true or false"}
		}
		return &b, nil
	default:
		return nil, &fault.ValidationError{Field: name, Reason: "must be true or false"}
	}
}

// boolean treats an absent argument as false.
func (p *params) boolean(name string) (bool, error) {
	b, err := p.optBool(name)
	if err != nil || b == nil {
		return false, err
	}
	return *b, nil
}
