package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anhthuvo/storefront/internal/models"
)

// Checkout operations talk to the REST API and, unlike cart mutations,
// propagate their errors unwrapped so the checkout flow can branch on the
// structured backend error.

// checkoutBase selects the handle addressing scheme: the customer token
// scopes "carts/mine", guest carts are addressed by id.
func (r *Reconciler) checkoutBase() (string, error) {
	if r.sess.IsAuthenticated() {
		return "V1/carts/mine", nil
	}
	handle := r.Handle()
	if handle.IsZero() {
		return "", ErrNoActiveCart
	}
	return "V1/guest-carts/" + handle.ID, nil
}

// EstimateShippingMethods asks the backend for the shipping methods
// available for a destination.
func (r *Reconciler) EstimateShippingMethods(ctx context.Context, countryID string, regionID int) ([]models.ShippingMethod, error) {
	base, err := r.checkoutBase()
	if err != nil {
		return nil, err
	}
	address := map[string]any{"country_id": countryID}
	if regionID != 0 {
		address["region_id"] = regionID
	}
	var methods []models.ShippingMethod
	if err := r.rest.Post(ctx, base+"/estimate-shipping-methods", map[string]any{"address": address}, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

// PaymentInput carries the card token produced by the payment SDK.
type PaymentInput struct {
	Email string
	// CardToken is the tokenized card, never raw card data.
	CardToken string
	SaveCard  bool
}

// PlaceOrder submits payment information and returns the order id.
func (r *Reconciler) PlaceOrder(ctx context.Context, in PaymentInput) (string, error) {
	base, err := r.checkoutBase()
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"paymentMethod": map[string]any{
			"method": "stripe_payments",
			"additional_data": map[string]any{
				"cc_save":           in.SaveCard,
				"cc_stripejs_token": in.CardToken,
			},
		},
	}
	if !r.sess.IsAuthenticated() {
		email := r.Snapshot().Email
		if email == "" {
			email = in.Email
		}
		body["email"] = email
	}

	var orderID string
	if err := r.rest.Post(ctx, base+"/payment-information", body, &orderID); err != nil {
		return "", err
	}
	return orderID, nil
}

// PlaceFreeOrder places a zero-total order, e.g. one fully covered by store
// credit.
func (r *Reconciler) PlaceFreeOrder(ctx context.Context) (string, error) {
	base, err := r.checkoutBase()
	if err != nil {
		return "", err
	}
	body := map[string]any{
		"paymentMethod": map[string]any{"method": "free"},
	}
	if !r.sess.IsAuthenticated() {
		body["email"] = r.Snapshot().Email
	}

	var orderID string
	if err := r.rest.Put(ctx, base+"/order", body, &orderID); err != nil {
		return "", err
	}
	return orderID, nil
}

// CreatePaymentIntent asks the payment bridge for a payment intent. The
// endpoint double-encodes its response as a JSON string.
func (r *Reconciler) CreatePaymentIntent(ctx context.Context, amount float64, currency string) (*models.PaymentIntent, error) {
	handle := r.Handle()
	if handle.IsZero() {
		return nil, ErrNoActiveCart
	}
	body := map[string]any{
		"params": map[string]any{
			"cartId":   handle.ID,
			"amount":   amount,
			"currency": currency,
		},
	}
	var raw string
	if err := r.rest.Post(ctx, "V1/payment/payment-intent", body, &raw); err != nil {
		return nil, err
	}
	var intent models.PaymentIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return nil, fmt.Errorf("decoding payment intent: %w", err)
	}
	return &intent, nil
}
