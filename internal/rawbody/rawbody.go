// Package rawbody keeps the exact bytes of an inbound request body so that
// signatures computed over them by a third party can be checked later.
package rawbody

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

type ctxKey struct{}

var (
	ErrEmptyBody    = errors.New("request body is empty")
	ErrBodyTooLarge = errors.New("request body too large")
)

// ErrorHandler writes the response when the body cannot be captured.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Capture reads the whole body once, stores the bytes in the request context
// and replaces r.Body with a reader over the same bytes. Nothing downstream
// ever sees a decoded or re-encoded copy.
func Capture(maxBytes int64, onError ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := Read(w, r, maxBytes)
			if err != nil {
				onError(w, r, err)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, raw)))
		})
	}
}

// Read drains the request body, bounded by maxBytes when positive.
func Read(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, ErrEmptyBody
	}

	body := r.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		return nil, errors.Wrap(err, "read request body")
	}
	if len(raw) == 0 {
		return nil, ErrEmptyBody
	}
	return raw, nil
}

// FromContext returns the bytes captured for the current request.
func FromContext(ctx context.Context) ([]byte, bool) {
	raw, ok := ctx.Value(ctxKey{}).([]byte)
	return raw, ok && len(raw) > 0
}
