package processor

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-relay/internal/checkout"
	"payment-relay/internal/config"
)

func newTestServer(t *testing.T, status int, response string, got *url.Values, headers *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		*got = r.PostForm
		*headers = r.Header.Clone()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStripeClient_CreateCheckoutSession(t *testing.T) {
	var form url.Values
	var headers http.Header
	srv := newTestServer(t, http.StatusOK,
		`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`, &form, &headers)

	c := NewStripeClientWithHTTPClient(config.Stripe{SecretKey: "sk_test_1", APIURL: srv.URL}, nil, srv.Client(), slog.Default())

	sess, err := c.CreateCheckoutSession(context.Background(), checkout.SessionParams{
		PaymentKey: "pk 1/2?x=y",
		OrderID:    "o_1",
		Product:    "Poster",
		Currency:   "usd",
		UnitAmount: 1250,
		SuccessURL: "https://shop.example.com/success",
		CancelURL:  "https://shop.example.com/cancel",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sess.URL)

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "card", form.Get("payment_method_types[0]"))
	assert.Equal(t, "pk 1/2?x=y", form.Get("metadata[payment_key]"))
	assert.Equal(t, "o_1", form.Get("metadata[order_id]"))
	assert.Equal(t, "pk 1/2?x=y", form.Get("payment_intent_data[metadata][payment_key]"))
	assert.Equal(t, "o_1", form.Get("client_reference_id"))
	assert.Equal(t, "1250", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "Poster", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "https://shop.example.com/success", form.Get("success_url"))

	assert.Equal(t, "pk 1/2?x=y", headers.Get("Idempotency-Key"))
	assert.Equal(t, "Bearer sk_test_1", headers.Get("Authorization"))
}

func TestStripeClient_UpstreamError(t *testing.T) {
	var form url.Values
	var headers http.Header
	srv := newTestServer(t, http.StatusBadRequest,
		`{"error":{"type":"invalid_request_error","message":"Invalid currency: zzz"}}`, &form, &headers)

	c := NewStripeClientWithHTTPClient(config.Stripe{SecretKey: "sk_test_1", APIURL: srv.URL}, []string{"card"}, srv.Client(), slog.Default())

	_, err := c.CreateCheckoutSession(context.Background(), checkout.SessionParams{
		PaymentKey: "pk_1", Product: "Poster", Currency: "zzz", UnitAmount: 100,
		SuccessURL: "https://shop.example.com/success", CancelURL: "https://shop.example.com/cancel",
	})

	var upstream *checkout.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "Invalid currency: zzz", upstream.Message)
	assert.Empty(t, form.Get("metadata[order_id]"))
}
