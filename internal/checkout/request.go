package checkout

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"payment-relay/internal/payload"
)

const maxProductName = 250

// Request is a checkout request after validation, independent of the
// storefront shape it arrived in.
type Request struct {
	Product    string
	Amount     decimal.Decimal
	Currency   string
	PaymentKey string
	OrderID    string
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Resolver validates the supported request shapes.
type Resolver struct {
	validate *validator.Validate
}

func NewResolver() *Resolver {
	return &Resolver{validate: newValidator()}
}

func (r *Resolver) ResolveGeneric(req payload.Checkout) (Request, error) {
	if err := r.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Request{}, errors.Wrap(err, "validate request")
		}
		return Request{}, toValidationError(fieldErrs)
	}

	return Request{
		Product:    strings.TrimSpace(req.Product),
		Amount:     *req.Price,
		Currency:   strings.ToLower(req.Currency),
		PaymentKey: strings.TrimSpace(req.PaymentKey.String()),
		OrderID:    strings.TrimSpace(req.OrderID.String()),
	}, nil
}

func toValidationError(fieldErrs validator.ValidationErrors) *ValidationError {
	var missing, invalid []string
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Message: MessageMissingFields, Fields: missing}
	}
	return &ValidationError{Message: "Invalid fields", Fields: invalid}
}

// ResolveCreatium accepts the flat form or the nested payment/order/cart
// form. Nested values are looked up in order: payment, order, cart. A
// top-level payment_key or order_id is honoured in both forms.
func (r *Resolver) ResolveCreatium(req payload.Creatium) (Request, error) {
	if !req.Nested() {
		return r.ResolveGeneric(payload.Checkout{
			Product:    req.Product,
			Price:      req.Price,
			Currency:   req.Currency,
			PaymentKey: req.PaymentKey,
			OrderID:    req.OrderID,
		})
	}

	var (
		out     Request
		missing []string
		payment = req.Payment
		order   = req.Order
		cart    = req.Cart
	)
	if payment == nil {
		payment = &payload.CreatiumPayment{}
	}
	if order == nil {
		order = &payload.CreatiumOrder{}
	}
	if cart == nil {
		cart = &payload.CreatiumCart{}
	}

	out.PaymentKey = firstNonEmpty(payment.Key.String(), req.PaymentKey.String())
	out.OrderID = firstNonEmpty(order.ID.String(), req.OrderID.String())

	out.Product = firstNonEmpty(cartTitle(cart), order.Title, payment.Description)
	if out.Product == "" && out.OrderID != "" {
		out.Product = "Order " + out.OrderID
	}
	if out.Product == "" {
		missing = append(missing, "cart.items.title")
	}

	amount, ok := firstAmount(payment.Amount, order.Total, cart.Total)
	if !ok {
		amount, ok = cartSum(cart)
	}
	if ok {
		out.Amount = amount
	} else {
		missing = append(missing, "payment.amount")
	}

	out.Currency = strings.ToLower(firstNonEmpty(payment.Currency, order.Currency, cart.Currency))
	if out.Currency == "" {
		missing = append(missing, "payment.currency")
	}

	if len(missing) > 0 {
		return Request{}, &ValidationError{Message: MessageMissingFields, Fields: missing}
	}
	if err := r.validate.Var(out.Currency, "alpha,len=3"); err != nil {
		return Request{}, &ValidationError{Message: "Invalid fields", Fields: []string{"payment.currency"}}
	}
	if err := r.validate.Var(out.PaymentKey, "max=500"); err != nil {
		return Request{}, &ValidationError{Message: "Invalid fields", Fields: []string{"payment.key"}}
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstAmount(values ...*decimal.Decimal) (decimal.Decimal, bool) {
	for _, v := range values {
		if v != nil {
			return *v, true
		}
	}
	return decimal.Decimal{}, false
}

func cartTitle(cart *payload.CreatiumCart) string {
	var titles []string
	for _, item := range cart.Items {
		if t := strings.TrimSpace(item.Title); t != "" {
			titles = append(titles, t)
		}
	}
	title := []rune(strings.Join(titles, ", "))
	if len(title) > maxProductName {
		return string(title[:maxProductName-3]) + "..."
	}
	return string(title)
}

func cartSum(cart *payload.CreatiumCart) (decimal.Decimal, bool) {
	if len(cart.Items) == 0 {
		return decimal.Decimal{}, false
	}
	total := decimal.Zero
	for _, item := range cart.Items {
		if item.Price == nil {
			return decimal.Decimal{}, false
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(qty)))
	}
	return total, true
}
