package payload

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"payment-relay/internal/model"
)

// FlexString accepts a JSON string or number. Storefronts send ids both ways.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

type Checkout struct {
	Product    string           `json:"product" validate:"required,max=250"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
	Currency   string           `json:"currency" validate:"required,alpha,len=3"`
	PaymentKey FlexString       `json:"payment_key,omitempty" validate:"max=500"`
	OrderID    FlexString       `json:"order_id,omitempty" validate:"max=500"`
}

type CreatiumPayment struct {
	Key         FlexString       `json:"key"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency"`
	Description string           `json:"description"`
}

type CreatiumOrder struct {
	ID       FlexString       `json:"id"`
	Title    string           `json:"title"`
	Total    *decimal.Decimal `json:"total"`
	Currency string           `json:"currency"`
}

type CreatiumCartItem struct {
	Title    string           `json:"title"`
	Price    *decimal.Decimal `json:"price"`
	Quantity int64            `json:"quantity"`
}

type CreatiumCart struct {
	Items    []CreatiumCartItem `json:"items"`
	Total    *decimal.Decimal   `json:"total"`
	Currency string             `json:"currency"`
}

// Creatium covers both the flat form and the nested payment/order/cart form.
type Creatium struct {
	Product    string           `json:"product"`
	Price      *decimal.Decimal `json:"price"`
	Currency   string           `json:"currency"`
	PaymentKey FlexString       `json:"payment_key"`
	OrderID    FlexString       `json:"order_id"`

	Payment *CreatiumPayment `json:"payment"`
	Order   *CreatiumOrder   `json:"order"`
	Cart    *CreatiumCart    `json:"cart"`
}

// Nested reports whether the request uses the payment/order/cart form.
func (c Creatium) Nested() bool {
	return c.Payment != nil || c.Order != nil || c.Cart != nil
}

type CheckoutResponse struct {
	URL        string `json:"url"`
	PaymentKey string `json:"payment_key"`
	SessionID  string `json:"session_id"`
}

type ErrorResponse struct {
	Error    string          `json:"error"`
	Fields   []string        `json:"fields,omitempty"`
	Received json.RawMessage `json:"received,omitempty"`
}

type RelayStatusResponse struct {
	Claim      *model.Claim     `json:"claim"`
	Deliveries []model.Delivery `json:"deliveries"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
