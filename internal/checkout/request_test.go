package checkout

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-relay/internal/payload"
)

func decodeGeneric(t *testing.T, body string) payload.Checkout {
	t.Helper()
	var req payload.Checkout
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func decodeCreatium(t *testing.T, body string) payload.Creatium {
	t.Helper()
	var req payload.Creatium
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestResolveGeneric(t *testing.T) {
	r := NewResolver()

	got, err := r.ResolveGeneric(decodeGeneric(t, `{"product":" Poster ","price":"12.50","currency":"USD","payment_key":"pk_1","order_id":77}`))
	require.NoError(t, err)
	assert.Equal(t, "Poster", got.Product)
	assert.Equal(t, "12.5", got.Amount.String())
	assert.Equal(t, "usd", got.Currency)
	assert.Equal(t, "pk_1", got.PaymentKey)
	assert.Equal(t, "77", got.OrderID)
}

func TestResolveGeneric_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
		fields  []string
	}{
		{name: "all missing", body: `{}`, message: MessageMissingFields, fields: []string{"product", "price", "currency"}},
		{name: "price missing", body: `{"product":"Poster","currency":"usd"}`, message: MessageMissingFields, fields: []string{"price"}},
		{name: "bad currency", body: `{"product":"Poster","price":1,"currency":"dollars"}`, message: "Invalid fields", fields: []string{"currency"}},
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveGeneric(decodeGeneric(t, tt.body))
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.message, validationErr.Message)
			assert.Equal(t, tt.fields, validationErr.Fields)
		})
	}
}

func TestResolveCreatium(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Request
	}{
		{
			name: "flat form",
			body: `{"product":"Poster","price":10,"currency":"usd"}`,
			want: Request{Product: "Poster", Currency: "usd"},
		},
		{
			name: "flat form with identifiers",
			body: `{"product":"Poster","price":10,"currency":"usd","payment_key":"ck_flat_1","order_id":9}`,
			want: Request{Product: "Poster", Currency: "usd", PaymentKey: "ck_flat_1", OrderID: "9"},
		},
		{
			name: "nested form with top-level identifiers",
			body: `{"payment_key":"ck_top","order_id":"o_top","payment":{"amount":5,"currency":"usd","description":"Gift card"}}`,
			want: Request{Product: "Gift card", Currency: "usd", PaymentKey: "ck_top", OrderID: "o_top"},
		},
		{
			name: "payment block wins",
			body: `{"payment":{"key":"pk_9","amount":"25.00","currency":"EUR"},"order":{"id":1001,"total":99,"currency":"usd"},"cart":{"items":[{"title":"Mug","price":5,"quantity":5}]}}`,
			want: Request{Product: "Mug", Currency: "eur", PaymentKey: "pk_9", OrderID: "1001"},
		},
		{
			name: "order total and title",
			body: `{"order":{"id":"o_2","title":"Subscription","total":"49.90","currency":"gbp"}}`,
			want: Request{Product: "Subscription", Currency: "gbp", OrderID: "o_2"},
		},
		{
			name: "cart sum",
			body: `{"order":{"id":"o_3"},"cart":{"currency":"usd","items":[{"title":"Mug","price":"4.50","quantity":2},{"title":"Pen","price":1}]}}`,
			want: Request{Product: "Mug, Pen", Currency: "usd", OrderID: "o_3"},
		},
		{
			name: "product from order id",
			body: `{"payment":{"amount":5,"currency":"usd"},"order":{"id":"o_4"}}`,
			want: Request{Product: "Order o_4", Currency: "usd", OrderID: "o_4"},
		},
	}

	wantAmounts := map[string]string{
		"flat form":                              "10",
		"flat form with identifiers":             "10",
		"nested form with top-level identifiers": "5",
		"payment block wins":                     "25",
		"order total and title":                  "49.9",
		"cart sum":                               "10",
		"product from order id":                  "5",
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveCreatium(decodeCreatium(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, wantAmounts[tt.name], got.Amount.String())
			got.Amount = tt.want.Amount
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCreatium_Missing(t *testing.T) {
	r := NewResolver()

	_, err := r.ResolveCreatium(decodeCreatium(t, `{"payment":{"key":"pk_1"}}`))
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, MessageMissingFields, validationErr.Message)
	assert.Equal(t, []string{"cart.items.title", "payment.amount", "payment.currency"}, validationErr.Fields)

	_, err = r.ResolveCreatium(decodeCreatium(t, `{"product":"Poster","currency":"usd"}`))
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"price"}, validationErr.Fields)

	_, err = r.ResolveCreatium(decodeCreatium(t, `{"order":{"id":"o_1","total":5,"currency":"euro"}}`))
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"payment.currency"}, validationErr.Fields)
}
