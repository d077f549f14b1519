package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/anhthuvo/storefront/internal/store/cart"
	"github.com/anhthuvo/storefront/internal/store/tracking"
)

// List prints the cart snapshot with prices, coupons, and credit.
func (a *App) List(ctx context.Context) error {
	snap := a.cart.Snapshot()
	if len(snap.Items) == 0 {
		fmt.Println("Cart is empty.")
	}
	for _, item := range snap.Items {
		fmt.Printf("  [%s] %s x%.0f  %.2f %s\n",
			item.ID, item.Product.Name, item.Quantity,
			item.Prices.Price.Value, item.Prices.Price.Currency)
	}
	if codes := snap.AppliedCouponCodes(); len(codes) > 0 {
		fmt.Printf("  coupons: %v\n", codes)
	}
	if applied := a.credit.AppliedCredit(); applied > 0 {
		fmt.Printf("  store credit applied: %.2f\n", applied)
	}
	fmt.Printf("  total: %.2f %s\n", snap.Prices.GrandTotal.Value, snap.Prices.GrandTotal.Currency)
	return nil
}

// Add prompts for a sku and quantity and adds a simple product.
func (a *App) Add(ctx context.Context) error {
	sku, err := getSimpleText(a.reader, "Enter sku", os.Stdout)
	if err != nil {
		return err
	}
	qtyStr, err := getSimpleText(a.reader, "Enter quantity", os.Stdout)
	if err != nil {
		return err
	}
	qty, err := strconv.ParseFloat(qtyStr, 64)
	if err != nil {
		fmt.Println("Quantity must be a number.")
		return nil
	}

	item, err := a.cart.AddProducts(ctx, cart.ProductSimple, []map[string]any{
		{"data": map[string]any{"sku": sku, "quantity": qty}},
	})
	if err != nil {
		fmt.Println("Could not add to cart.")
		return err
	}
	if item != nil {
		fmt.Printf("Added %s.\n", item.Product.Name)
	}
	a.credit.HandleCartChange(ctx)
	a.emitter.Track(ctx, tracking.Event{
		Name:         "AddToCart",
		FacebookData: map[string]any{"content_ids": []string{sku}},
		GoogleData:   map[string]any{"items": []string{sku}},
		CustomData:   map[string]any{"sku": sku, "quantity": qty},
	})
	return nil
}

// Remove prompts for a line-item id and removes it.
func (a *App) Remove(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter item id", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.cart.RemoveItem(ctx, id); err != nil {
		fmt.Println("Could not remove item.")
		return err
	}
	a.credit.HandleCartChange(ctx)
	return nil
}

// Quantity prompts for a line-item id and a new quantity.
func (a *App) Quantity(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter item id", os.Stdout)
	if err != nil {
		return err
	}
	qtyStr, err := getSimpleText(a.reader, "Enter quantity", os.Stdout)
	if err != nil {
		return err
	}
	qty, err := strconv.ParseFloat(qtyStr, 64)
	if err != nil {
		fmt.Println("Quantity must be a number.")
		return nil
	}
	if err := a.cart.UpdateItemQuantity(ctx, id, qty); err != nil {
		fmt.Println("Could not update quantity.")
		return err
	}
	a.credit.HandleCartChange(ctx)
	return nil
}

// Coupon prompts for a code and applies it.
func (a *App) Coupon(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter coupon code", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.credit.ApplyCoupon(ctx, code); err != nil {
		fmt.Println(a.credit.Err())
		a.credit.DismissErr()
		return err
	}
	a.credit.HandleCartChange(ctx)
	fmt.Println("Coupon applied.")
	return nil
}

// Credits prints the credit and voucher state.
func (a *App) Credits(ctx context.Context) error {
	fmt.Printf("  balance: %.2f, applied: %.2f\n", a.credit.Credit(), a.credit.AppliedCredit())
	applied, unapplied := a.credit.VoucherSplit()
	for _, v := range applied {
		fmt.Printf("  voucher %s (%.2f) applied\n", v.Code, v.Amount)
	}
	for _, v := range unapplied {
		fmt.Printf("  voucher %s (%.2f) available\n", v.Code, v.Amount)
	}
	for _, p := range a.credit.Perks() {
		fmt.Printf("  perk: %s\n", p.Label)
	}
	return nil
}

// Checkout runs the interactive checkout flow: shipping, billing, payment.
func (a *App) Checkout(ctx context.Context) error {
	snap := a.cart.Snapshot()
	if len(snap.Items) == 0 {
		fmt.Println("Cart is empty.")
		return nil
	}

	in, err := a.promptShipping(ctx)
	if err != nil {
		return err
	}
	if _, err := a.cart.SetShippingInformation(ctx, in); err != nil {
		fmt.Println("Could not set shipping information.")
		return err
	}
	if _, err := a.cart.SetBillingInformation(ctx, cart.BillingInput{
		Email:          in.Email,
		SameAsShipping: true,
	}); err != nil {
		fmt.Println("Could not set billing information.")
		return err
	}
	a.credit.HandleCartChange(ctx)

	var orderID string
	if a.cart.Snapshot().Prices.GrandTotal.Value == 0 {
		orderID, err = a.cart.PlaceFreeOrder(ctx)
	} else {
		var token string
		token, err = getSimpleText(a.reader, "Enter card token", os.Stdout)
		if err != nil {
			return err
		}
		orderID, err = a.cart.PlaceOrder(ctx, cart.PaymentInput{Email: in.Email, CardToken: token})
	}
	if err != nil {
		fmt.Println("Order failed:", err)
		return err
	}

	fmt.Println("Order placed:", orderID)
	a.emitter.Track(ctx, tracking.Event{
		Name:         "Purchase",
		FacebookData: map[string]any{"value": snap.Prices.GrandTotal.Value, "currency": snap.Prices.GrandTotal.Currency},
		GoogleData:   map[string]any{"transaction_id": orderID},
		CustomData:   map[string]any{"order_id": orderID, "value": snap.Prices.GrandTotal.Value},
	})

	if err := a.cart.Reconcile(ctx); err != nil {
		a.log.Warn(ctx, "post-order cart reconcile failed", "err", err)
	}
	return nil
}

func (a *App) promptShipping(ctx context.Context) (cart.ShippingInput, error) {
	var in cart.ShippingInput
	var err error

	if !a.isLoggedIn() {
		if in.Email, err = getSimpleText(a.reader, "Enter email", os.Stdout); err != nil {
			return in, err
		}
	}
	if in.Address.Firstname, err = getSimpleText(a.reader, "First name", os.Stdout); err != nil {
		return in, err
	}
	if in.Address.Lastname, err = getSimpleText(a.reader, "Last name", os.Stdout); err != nil {
		return in, err
	}
	street, err := getSimpleText(a.reader, "Street", os.Stdout)
	if err != nil {
		return in, err
	}
	in.Address.Street = []string{street}
	if in.Address.City, err = getSimpleText(a.reader, "City", os.Stdout); err != nil {
		return in, err
	}
	if in.Address.Postcode, err = getSimpleText(a.reader, "Postcode", os.Stdout); err != nil {
		return in, err
	}
	if in.Address.Country, err = getSimpleText(a.reader, "Country code", os.Stdout); err != nil {
		return in, err
	}
	if in.Address.Telephone, err = getSimpleText(a.reader, "Telephone", os.Stdout); err != nil {
		return in, err
	}

	methods, err := a.cart.EstimateShippingMethods(ctx, in.Address.Country, 0)
	if err != nil {
		return in, err
	}
	for _, m := range methods {
		if m.Available {
			fmt.Printf("  %s/%s %s %.2f\n", m.CarrierCode, m.MethodCode, m.MethodTitle, m.Amount)
		}
	}
	if in.CarrierCode, err = getSimpleText(a.reader, "Carrier code", os.Stdout); err != nil {
		return in, err
	}
	if in.MethodCode, err = getSimpleText(a.reader, "Method code", os.Stdout); err != nil {
		return in, err
	}
	return in, nil
}
