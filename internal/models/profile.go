// Package models defines client-side domain models shared by the storefront
// stores: the customer profile, the cart snapshot and its handle, vouchers,
// store credit, and tracking payloads. JSON tags follow the commerce
// backend's snake_case wire format.
package models

// Profile is the authenticated customer record returned by the backend.
// It is refetched on every session load and never persisted locally.
type Profile struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	StoreID   int    `json:"store_id"`
}

// SignupExtensionAttributes carries optional customer attributes accepted
// by the account-creation endpoint.
type SignupExtensionAttributes struct {
	IsSubscribed bool `json:"is_subscribed"`
}

// SignupCustomer is the nested customer record of the signup payload.
type SignupCustomer struct {
	Email               string                    `json:"email"`
	Firstname           string                    `json:"firstname"`
	Lastname            string                    `json:"lastname"`
	StoreID             int                       `json:"store_id"`
	ExtensionAttributes SignupExtensionAttributes `json:"extension_attributes"`
}

// SignupRequest is the wire payload of POST V1/customers.
type SignupRequest struct {
	Customer SignupCustomer `json:"customer"`
	Password string         `json:"password"`
}
