package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/anhthuvo/storefront/internal/api"
	"github.com/anhthuvo/storefront/internal/models"
)

// Product type identifiers accepted by AddProducts.
const (
	ProductSimple       = "SimpleProduct"
	ProductConfigurable = "ConfigurableProduct"
	ProductBundle       = "BundleProduct"
	ProductDownloadable = "DownloadableProduct"
	ProductVirtual      = "VirtualProduct"
)

func addMutationFor(productType string) (doc, op string) {
	switch productType {
	case ProductSimple:
		return api.MutationAddSimpleProductsToCart, "addSimpleProductsToCart"
	case ProductConfigurable:
		return api.MutationAddConfigurableProductsToCart, "addConfigurableProductsToCart"
	case ProductBundle:
		return api.MutationAddBundleProductsToCart, "addBundleProductsToCart"
	case ProductDownloadable:
		return api.MutationAddDownloadableProductsToCart, "addDownloadableProductsToCart"
	case ProductVirtual:
		return api.MutationAddVirtualProductsToCart, "addVirtualProductsToCart"
	}
	return "", ""
}

// mutateCart runs a cart mutation whose response wraps the full cart under
// the operation name. Failures follow the Swallow policy: they are logged,
// the snapshot is left untouched, and the error is wrapped in
// ErrMutationFailed for the caller to surface.
func (r *Reconciler) mutateCart(ctx context.Context, op, doc string, vars map[string]any) (models.Cart, error) {
	handle := r.Handle()
	if handle.IsZero() {
		return models.Cart{}, fmt.Errorf("%w: %v", ErrMutationFailed, ErrNoActiveCart)
	}
	vars["cartId"] = handle.ID

	out := map[string]struct {
		Cart models.Cart `json:"cart"`
	}{}
	if err := r.gql.Execute(ctx, doc, vars, &out); err != nil {
		r.log.Warn(ctx, "cart mutation failed", "op", op, "cart_id", handle.ID, "err", err)
		return models.Cart{}, fmt.Errorf("%w: %s: %v", ErrMutationFailed, op, err)
	}
	return out[op].Cart, nil
}

// AddProducts adds one or more products of a single product type and returns
// the line item the backend appended last.
func (r *Reconciler) AddProducts(ctx context.Context, productType string, products []map[string]any) (*models.CartItem, error) {
	doc, op := addMutationFor(productType)
	if doc == "" {
		return nil, fmt.Errorf("%w: unsupported product type %q", ErrMutationFailed, productType)
	}
	snap, err := r.mutateCart(ctx, op, doc, map[string]any{"products": products})
	if err != nil {
		return nil, err
	}
	r.replaceSnapshot(snap)
	if len(snap.Items) == 0 {
		return nil, nil
	}
	return &snap.Items[len(snap.Items)-1], nil
}

// RemoveItem removes a single line item by its id.
func (r *Reconciler) RemoveItem(ctx context.Context, itemID string) error {
	id, err := strconv.Atoi(itemID)
	if err != nil {
		return fmt.Errorf("%w: invalid item id %q", ErrMutationFailed, itemID)
	}
	snap, err := r.mutateCart(ctx, "removeItemFromCart", api.MutationRemoveItemFromCart, map[string]any{
		"cartItemId": id,
	})
	if err != nil {
		return err
	}
	r.replaceSnapshot(snap)
	return nil
}

// RemoveAll removes every line item from the cart.
func (r *Reconciler) RemoveAll(ctx context.Context) error {
	for _, item := range r.Snapshot().Items {
		if err := r.RemoveItem(ctx, item.ID); err != nil {
			return err
		}
	}
	r.patchSnapshot(func(c *models.Cart) { c.Items = nil })
	return nil
}

// UpdateItemQuantity changes a line item's quantity.
func (r *Reconciler) UpdateItemQuantity(ctx context.Context, itemID string, quantity float64) error {
	snap, err := r.mutateCart(ctx, "updateCartItems", api.MutationUpdateCartItems, map[string]any{
		"cartItems": []map[string]any{
			{"cart_item_id": itemID, "quantity": quantity},
		},
	})
	if err != nil {
		return err
	}
	r.replaceSnapshot(snap)
	return nil
}

// ApplyCouponCodes submits the comma-joined code list. The backend keeps all
// applied codes in one coupon slot, so the caller resubmits the whole list on
// every change.
func (r *Reconciler) ApplyCouponCodes(ctx context.Context, joined string) error {
	snap, err := r.mutateCart(ctx, "applyCouponToCart", api.MutationApplyCouponToCart, map[string]any{
		"couponCode": joined,
	})
	if err != nil {
		return err
	}
	r.replaceSnapshot(snap)
	return nil
}

// RemoveCoupons clears the coupon slot, dropping every applied code at once.
func (r *Reconciler) RemoveCoupons(ctx context.Context) error {
	snap, err := r.mutateCart(ctx, "removeCouponFromCart", api.MutationRemoveCouponFromCart, map[string]any{})
	if err != nil {
		return err
	}
	r.replaceSnapshot(snap)
	return nil
}

// ShippingInput carries everything SetShippingInformation needs.
type ShippingInput struct {
	Email       string
	Address     models.AddressInput
	CarrierCode string
	MethodCode  string
	// Subscribe opts the customer into the newsletter as part of checkout.
	Subscribe bool
}

// SetShippingInformation sets the guest email (when unauthenticated), the
// shipping address, and the shipping method, then merges the returned prices
// and shipping addresses into the snapshot.
func (r *Reconciler) SetShippingInformation(ctx context.Context, in ShippingInput) ([]models.ShippingAddress, error) {
	guest := !r.sess.IsAuthenticated()

	if guest && in.Email != "" {
		if _, err := r.mutateCart(ctx, "setGuestEmailOnCart", api.MutationSetGuestEmailOnCart, map[string]any{
			"email": in.Email,
		}); err != nil {
			return nil, err
		}
	}

	if _, err := r.mutateCart(ctx, "setShippingAddressesOnCart", api.MutationSetShippingAddressesOnCart, map[string]any{
		"shippingAddress": map[string]any{"address": in.Address},
	}); err != nil {
		return nil, err
	}

	snap, err := r.mutateCart(ctx, "setShippingMethodsOnCart", api.MutationSetShippingMethodsOnCart, map[string]any{
		"shippingMethod": map[string]any{
			"carrier_code": in.CarrierCode,
			"method_code":  in.MethodCode,
		},
	})
	if err != nil {
		return nil, err
	}

	r.patchSnapshot(func(c *models.Cart) {
		c.Prices = snap.Prices
		c.ShippingAddresses = snap.ShippingAddresses
		if guest && in.Email != "" {
			c.Email = in.Email
		}
	})

	if in.Subscribe {
		if err := r.subscribe(ctx, in.Email); err != nil {
			return nil, fmt.Errorf("%w: newsletter subscription: %v", ErrMutationFailed, err)
		}
	}
	return snap.ShippingAddresses, nil
}

func (r *Reconciler) subscribe(ctx context.Context, email string) error {
	firstname, lastname := "", ""
	if user := r.sess.User(); user != nil {
		firstname, lastname = user.Firstname, user.Lastname
		if email == "" {
			email = user.Email
		}
	}
	body := map[string]any{
		"data": map[string]any{
			"email":     email,
			"firstname": firstname,
			"lastname":  lastname,
		},
	}
	return r.rest.Post(ctx, "V1/customer/subscribe", body, nil)
}

// BillingInput carries everything SetBillingInformation needs.
type BillingInput struct {
	Email          string
	SameAsShipping bool
	Address        models.AddressInput
}

// SetBillingInformation sets the billing address and merges it into the
// snapshot.
func (r *Reconciler) SetBillingInformation(ctx context.Context, in BillingInput) (*models.BillingAddress, error) {
	address := map[string]any{"same_as_shipping": in.SameAsShipping}
	if !in.SameAsShipping {
		address["address"] = in.Address
	}

	if !r.sess.IsAuthenticated() && in.Email != "" {
		if _, err := r.mutateCart(ctx, "setGuestEmailOnCart", api.MutationSetGuestEmailOnCart, map[string]any{
			"email": in.Email,
		}); err != nil {
			return nil, err
		}
	}

	snap, err := r.mutateCart(ctx, "setBillingAddressOnCart", api.MutationSetBillingAddressOnCart, map[string]any{
		"billingAddress": address,
	})
	if err != nil {
		return nil, err
	}

	r.patchSnapshot(func(c *models.Cart) {
		c.BillingAddress = snap.BillingAddress
		if !r.sess.IsAuthenticated() && in.Email != "" {
			c.Email = in.Email
		}
	})
	return snap.BillingAddress, nil
}
