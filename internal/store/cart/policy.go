package cart

// FailurePolicy states what a cart operation does with a backend failure.
type FailurePolicy string

const (
	// Swallow: the failure is logged, the snapshot stays untouched, and the
	// caller receives the error wrapped in ErrMutationFailed. The storefront
	// keeps running on the last good snapshot.
	Swallow FailurePolicy = "swallow"

	// Propagate: the structured backend error is returned unwrapped so the
	// caller can branch on it. Used on the checkout path, where the user must
	// see exactly why their order did not go through.
	Propagate FailurePolicy = "propagate"
)

// OpPolicies is the authoritative failure-policy table for every cart
// operation. Tests assert the implementation against it.
var OpPolicies = map[string]FailurePolicy{
	"Reconcile":               Propagate,
	"RefreshSnapshot":         Propagate,
	"AddProducts":             Swallow,
	"RemoveItem":              Swallow,
	"RemoveAll":               Swallow,
	"UpdateItemQuantity":      Swallow,
	"ApplyCouponCodes":        Swallow,
	"RemoveCoupons":           Swallow,
	"SetShippingInformation":  Swallow,
	"SetBillingInformation":   Swallow,
	"EstimateShippingMethods": Propagate,
	"PlaceOrder":              Propagate,
	"PlaceFreeOrder":          Propagate,
	"CreatePaymentIntent":     Propagate,
}
