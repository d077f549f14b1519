package models

import "strings"

// CartKind distinguishes a guest cart from a customer-owned one.
type CartKind string

const (
	CartKindGuest         CartKind = "guest"
	CartKindAuthenticated CartKind = "auth"
)

// CartHandle is the persisted pointer to the active cart. Exactly one handle
// is authoritative at a time; its kind must match the session state after
// reconciliation.
type CartHandle struct {
	ID   string   `json:"id"`
	Kind CartKind `json:"kind"`
}

// IsZero reports whether no cart handle is persisted.
func (h CartHandle) IsZero() bool { return h.ID == "" }

type Money struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

type Discount struct {
	Label  string `json:"label"`
	Amount Money  `json:"amount"`
}

type CartPrices struct {
	GrandTotal                  Money      `json:"grand_total"`
	SubtotalWithDiscountExclTax Money      `json:"subtotal_with_discount_excluding_tax"`
	Discounts                   []Discount `json:"discounts"`
}

type CartProduct struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

type CartItemPrices struct {
	Price Money `json:"price"`
}

type CartItem struct {
	ID       string         `json:"id"`
	Quantity float64        `json:"quantity"`
	Product  CartProduct    `json:"product"`
	Prices   CartItemPrices `json:"prices"`
}

type Region struct {
	Code string `json:"code"`
}

type Country struct {
	Code string `json:"code"`
}

type SelectedShippingMethod struct {
	CarrierCode string `json:"carrier_code"`
	MethodCode  string `json:"method_code"`
	Amount      Money  `json:"amount"`
}

type ShippingAddress struct {
	Firstname              string                  `json:"firstname"`
	Lastname               string                  `json:"lastname"`
	Street                 []string                `json:"street"`
	City                   string                  `json:"city"`
	Region                 Region                  `json:"region"`
	Postcode               string                  `json:"postcode"`
	Country                Country                 `json:"country"`
	Telephone              string                  `json:"telephone"`
	SelectedShippingMethod *SelectedShippingMethod `json:"selected_shipping_method,omitempty"`
}

type BillingAddress struct {
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Street    []string `json:"street"`
	City      string   `json:"city"`
	Postcode  string   `json:"postcode"`
	Country   Country  `json:"country"`
	Telephone string   `json:"telephone"`
}

// Coupon is one element of the cart's applied_coupons list. The backend
// stores all applied codes as a single comma-joined string in the first
// element; see Cart.AppliedCouponCodes.
type Coupon struct {
	Code string `json:"code"`
}

// Cart is the ephemeral snapshot of the last successful fetch or mutation
// response. It is never computed locally from deltas beyond superficial
// field merging.
type Cart struct {
	ID                string            `json:"id"`
	Email             string            `json:"email"`
	Items             []CartItem        `json:"items"`
	Prices            CartPrices        `json:"prices"`
	AppliedCoupons    []Coupon          `json:"applied_coupons"`
	ShippingAddresses []ShippingAddress `json:"shipping_addresses"`
	BillingAddress    *BillingAddress   `json:"billing_address,omitempty"`
}

// AppliedCouponCodes splits the comma-joined code list of the first applied
// coupon. Returns nil when no coupon is applied.
func (c *Cart) AppliedCouponCodes() []string {
	if len(c.AppliedCoupons) == 0 || c.AppliedCoupons[0].Code == "" {
		return nil
	}
	return strings.Split(c.AppliedCoupons[0].Code, ",")
}

// HasCoupon reports whether code is already part of the applied list.
func (c *Cart) HasCoupon(code string) bool {
	for _, applied := range c.AppliedCouponCodes() {
		if applied == code {
			return true
		}
	}
	return false
}

// HasDiscount reports whether at least one discount is reflected in prices.
func (c *Cart) HasDiscount() bool {
	return len(c.Prices.Discounts) > 0
}

// DiscountEligibleSubtotal is the basis for store-credit estimation.
func (c *Cart) DiscountEligibleSubtotal() float64 {
	return c.Prices.SubtotalWithDiscountExclTax.Value
}

// ItemByID returns the line item with the given id, or nil.
func (c *Cart) ItemByID(id string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

// ShippingMethod is one entry of the estimate-shipping-methods response.
type ShippingMethod struct {
	CarrierCode  string  `json:"carrier_code"`
	MethodCode   string  `json:"method_code"`
	CarrierTitle string  `json:"carrier_title"`
	MethodTitle  string  `json:"method_title"`
	Amount       float64 `json:"amount"`
	Available    bool    `json:"available"`
}

// AddressInput is the address payload accepted by set-shipping/billing
// mutations.
type AddressInput struct {
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Street    []string `json:"street"`
	City      string   `json:"city"`
	Region    string   `json:"region,omitempty"`
	Postcode  string   `json:"postcode"`
	Country   string   `json:"country_code"`
	Telephone string   `json:"telephone"`
}

// PaymentIntent is the decoded response of the payment-intent endpoint.
// The backend double-encodes it as a JSON string.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}
