// Package credit tracks the customer's store credit, vouchers, and campaign
// perks, and keeps the amount of credit applied to the cart consistent with
// the cart's current total. It reacts to session and cart transitions; it
// never initiates them.
package credit

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/anhthuvo/storefront/internal/api"
	"github.com/anhthuvo/storefront/internal/logging"
	"github.com/anhthuvo/storefront/internal/models"
)

// ErrCreditApply is the fixed user-facing message surfaced when a credit or
// voucher operation fails.
const ErrCreditApply = "Credit/Voucher failed to apply. Refresh the page to try again. Please contact us should the problem persist."

// Session is the slice of the session manager this reconciler depends on.
type Session interface {
	IsAuthenticated() bool
	Token() string
	User() *models.Profile
}

// CartStore is the slice of the cart reconciler this reconciler depends on.
type CartStore interface {
	Snapshot() models.Cart
	RefreshSnapshot(ctx context.Context) error
	ApplyCouponCodes(ctx context.Context, joined string) error
	RemoveCoupons(ctx context.Context) error
}

// Options toggles optional credit behaviour.
type Options struct {
	// DisablePerks skips the campaign-perk lookup entirely.
	DisablePerks bool
	// ForceApply levels credit onto the cart even when no discount is present.
	ForceApply bool
}

// Reconciler levels the customer's store credit against the cart and derives
// the applied/unapplied voucher split from the cart's coupon list.
type Reconciler struct {
	rest *api.RestClient
	cart CartStore
	sess Session
	log  logging.Logger
	opts Options

	mu            sync.RWMutex
	credit        float64
	appliedCredit float64
	lastEstimate  float64
	vouchers      []models.Voucher
	usedVouchers  []models.Voucher
	perks         []models.Perk
	errMsg        string
}

func NewReconciler(rest *api.RestClient, cart CartStore, sess Session, log logging.Logger, opts Options) *Reconciler {
	return &Reconciler{
		rest: rest,
		cart: cart,
		sess: sess,
		log:  log,
		opts: opts,
	}
}

// Credit returns the customer's total store-credit balance.
func (r *Reconciler) Credit() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.credit
}

// AppliedCredit returns the amount currently applied to the cart.
func (r *Reconciler) AppliedCredit() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.appliedCredit
}

// Vouchers returns all vouchers granted to the customer.
func (r *Reconciler) Vouchers() []models.Voucher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vouchers
}

// Perks returns the campaign perks, when the lookup ran.
func (r *Reconciler) Perks() []models.Perk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.perks
}

// Err returns the sticky user-facing error message, empty when none.
func (r *Reconciler) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errMsg
}

// DismissErr clears the error message. Dismissal is the caller's decision,
// there is no timer here.
func (r *Reconciler) DismissErr() {
	r.mu.Lock()
	r.errMsg = ""
	r.mu.Unlock()
}

// HandleLogin loads the credit balance, the voucher list, and (unless
// disabled or the customer has already redeemed vouchers) the campaign
// perks. Each lookup failure is logged and leaves that slice empty; login
// itself never fails because of credit data.
func (r *Reconciler) HandleLogin(ctx context.Context) {
	var sc models.StoreCredit
	if err := r.rest.Get(ctx, "V1/customers/me/amstorecredit", &sc); err != nil {
		r.log.Warn(ctx, "store credit lookup failed", "err", err)
	}

	var vc models.VoucherCredit
	body := map[string]any{"token": r.sess.Token()}
	if err := r.rest.Post(ctx, "V1/igg/voucher-credit", body, &vc); err != nil {
		r.log.Warn(ctx, "voucher lookup failed", "err", err)
	}

	var perks []models.Perk
	if !r.opts.DisablePerks && len(vc.UsedVouchers) == 0 {
		perks = r.fetchPerks(ctx)
	}

	r.mu.Lock()
	r.credit = sc.Amount
	r.vouchers = vc.Vouchers
	r.usedVouchers = vc.UsedVouchers
	r.perks = perks
	r.appliedCredit = 0
	r.lastEstimate = 0
	r.mu.Unlock()
}

// fetchPerks reads the campaign-perk lookup. The endpoint double-encodes its
// response as a JSON string.
func (r *Reconciler) fetchPerks(ctx context.Context) []models.Perk {
	user := r.sess.User()
	if user == nil {
		return nil
	}
	var raw string
	if err := r.rest.Get(ctx, "V1/backer/"+url.PathEscape(user.Email), &raw); err != nil {
		r.log.Warn(ctx, "perk lookup failed", "email", user.Email, "err", err)
		return nil
	}
	var perks []models.Perk
	if err := json.Unmarshal([]byte(raw), &perks); err != nil {
		r.log.Warn(ctx, "decoding perk lookup failed", "err", err)
		return nil
	}
	return perks
}

// HandleLogout drops all credit state.
func (r *Reconciler) HandleLogout() {
	r.mu.Lock()
	r.credit = 0
	r.appliedCredit = 0
	r.lastEstimate = 0
	r.vouchers = nil
	r.usedVouchers = nil
	r.perks = nil
	r.errMsg = ""
	r.mu.Unlock()
}

// HandleCartChange levels the applied store credit against the cart's
// discount-eligible subtotal. It acts only when the estimate actually
// changed; applying and cancelling are level-triggered, so replaying the
// same cart state is a no-op.
func (r *Reconciler) HandleCartChange(ctx context.Context) {
	if !r.sess.IsAuthenticated() {
		return
	}

	snap := r.cart.Snapshot()
	estimate := snap.DiscountEligibleSubtotal()

	r.mu.RLock()
	credit := r.credit
	applied := r.appliedCredit
	last := r.lastEstimate
	r.mu.RUnlock()

	if estimate == last {
		return
	}

	switch {
	case credit > 0 && estimate > 0 && (snap.HasDiscount() || r.opts.ForceApply):
		amount := min(credit, estimate)
		if err := r.rest.Post(ctx, "V1/carts/mine/amstorecredit/apply", map[string]any{"amount": amount}, nil); err != nil {
			r.fail(ctx, "applying store credit", err)
			return
		}
		if err := r.cart.RefreshSnapshot(ctx); err != nil {
			r.fail(ctx, "refreshing cart after credit apply", err)
			return
		}
		r.settle(amount, estimate)

	case applied > 0:
		if err := r.rest.Post(ctx, "V1/carts/mine/amstorecredit/cancel", nil, nil); err != nil {
			r.fail(ctx, "cancelling store credit", err)
			return
		}
		if err := r.cart.RefreshSnapshot(ctx); err != nil {
			r.fail(ctx, "refreshing cart after credit cancel", err)
			return
		}
		r.settle(0, estimate)

	default:
		r.mu.Lock()
		r.lastEstimate = estimate
		r.mu.Unlock()
	}
}

func (r *Reconciler) settle(applied, estimate float64) {
	r.mu.Lock()
	r.appliedCredit = applied
	r.lastEstimate = estimate
	r.mu.Unlock()
}

func (r *Reconciler) fail(ctx context.Context, msg string, err error) {
	r.log.Warn(ctx, msg+" failed", "err", err)
	r.mu.Lock()
	r.errMsg = ErrCreditApply
	r.mu.Unlock()
}

// VoucherSplit partitions the customer's vouchers into applied and unapplied
// by membership in the cart's comma-joined coupon list. It is a pure
// derivation from the snapshot; nothing is stored.
func (r *Reconciler) VoucherSplit() (applied, unapplied []models.Voucher) {
	snap := r.cart.Snapshot()
	codes := snap.AppliedCouponCodes()

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.vouchers {
		if containsCode(codes, v.Code) {
			applied = append(applied, v)
		} else {
			unapplied = append(unapplied, v)
		}
	}
	return applied, unapplied
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// ApplyCoupon appends code to the cart's coupon list and resubmits the whole
// comma-joined list. Applying an already-applied code is a no-op.
func (r *Reconciler) ApplyCoupon(ctx context.Context, code string) error {
	snap := r.cart.Snapshot()
	if snap.HasCoupon(code) {
		return nil
	}
	codes := append(snap.AppliedCouponCodes(), code)
	if err := r.cart.ApplyCouponCodes(ctx, strings.Join(codes, ",")); err != nil {
		r.fail(ctx, "applying coupon", err)
		return err
	}
	return nil
}

// RemoveCoupons clears the entire coupon list from the cart.
func (r *Reconciler) RemoveCoupons(ctx context.Context) error {
	if err := r.cart.RemoveCoupons(ctx); err != nil {
		r.fail(ctx, "removing coupons", err)
		return err
	}
	return nil
}
