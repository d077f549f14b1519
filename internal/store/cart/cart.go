// Package cart owns the active cart handle and its snapshot: reconciliation
// of guest vs. authenticated carts across login/logout, merge-on-login, and
// every cart-mutating operation. The snapshot is always a cache of the last
// successful backend response; there is no optimistic update, no retry, and
// no cancellation of in-flight work, so the last writer wins.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/anhthuvo/storefront/internal/api"
	"github.com/anhthuvo/storefront/internal/logging"
	"github.com/anhthuvo/storefront/internal/models"
	"github.com/anhthuvo/storefront/internal/storage"
)

// State is the reconciler's lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateGuestActive   State = "guest-active"
	StateAuthActive    State = "authenticated-active"
)

var (
	// ErrMutationFailed wraps every swallowed mutation failure. The snapshot
	// is guaranteed untouched when it is returned.
	ErrMutationFailed = errors.New("cart mutation failed")

	// ErrNoActiveCart is returned when an operation runs before any cart
	// handle exists.
	ErrNoActiveCart = errors.New("no active cart")
)

// Session is the slice of the session manager the reconciler depends on.
type Session interface {
	IsAuthenticated() bool
	Token() string
	User() *models.Profile
}

// Reconciler keeps the persisted cart handle consistent with the session
// state and funnels all cart operations through the active handle.
type Reconciler struct {
	rest *api.RestClient
	gql  *api.GraphQLClient
	kv   storage.Repository
	sess Session
	log  logging.Logger

	mu       sync.RWMutex
	state    State
	handle   models.CartHandle
	snapshot models.Cart
}

func NewReconciler(rest *api.RestClient, gql *api.GraphQLClient, kv storage.Repository, sess Session, log logging.Logger) *Reconciler {
	return &Reconciler{
		rest:  rest,
		gql:   gql,
		kv:    kv,
		sess:  sess,
		log:   log,
		state: StateUninitialized,
	}
}

func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Handle returns the active cart handle (zero when none).
func (r *Reconciler) Handle() models.CartHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handle
}

// Snapshot returns a copy of the cached cart snapshot.
func (r *Reconciler) Snapshot() models.Cart {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// ItemByID returns the cached line item with the given id, or nil.
func (r *Reconciler) ItemByID(id string) *models.CartItem {
	snap := r.Snapshot()
	return snap.ItemByID(id)
}

// Reconcile drives the handle state machine after startup and after every
// session transition:
//
//  1. no persisted handle            -> create a guest cart
//  2. authenticated + guest handle   -> merge into the customer cart (once)
//     authenticated + auth handle    -> refetch its contents
//  3. unauthenticated + auth handle  -> discard, create a fresh guest cart
//  4. guest handle rejected (404/401) -> discard, create a fresh guest cart
func (r *Reconciler) Reconcile(ctx context.Context) error {
	r.setState(StateLoading)

	handle, err := r.loadHandle(ctx)
	if err != nil {
		r.setState(StateUninitialized)
		return err
	}

	if r.sess.IsAuthenticated() {
		return r.reconcileAuthenticated(ctx, handle)
	}
	return r.reconcileGuest(ctx, handle)
}

func (r *Reconciler) reconcileGuest(ctx context.Context, handle models.CartHandle) error {
	// A handle left behind by logout must never be reused.
	if handle.IsZero() || handle.Kind == models.CartKindAuthenticated {
		return r.fetchGuestCart(ctx)
	}

	// Validate the persisted guest handle against the backend.
	err := r.rest.Get(ctx, "V1/guest-carts/"+handle.ID, nil, api.WithoutAuth())
	if errors.Is(err, api.ErrNotFound) || errors.Is(err, api.ErrUnauthorized) {
		r.log.Info(ctx, "persisted guest cart expired, replacing", "cart_id", handle.ID)
		return r.fetchGuestCart(ctx)
	}
	if err != nil {
		r.setState(StateUninitialized)
		return fmt.Errorf("validating guest cart: %w", err)
	}

	snap, err := r.fetchView(ctx, handle.ID)
	if err != nil {
		r.clear(ctx)
		r.setState(StateUninitialized)
		return fmt.Errorf("fetching guest cart view: %w", err)
	}
	r.activate(handle, snap, StateGuestActive)
	return nil
}

func (r *Reconciler) reconcileAuthenticated(ctx context.Context, handle models.CartHandle) error {
	var cc struct {
		CustomerCart struct {
			ID string `json:"id"`
		} `json:"customerCart"`
	}
	if err := r.gql.Execute(ctx, api.QueryCustomerCart, nil, &cc); err != nil {
		r.setState(StateUninitialized)
		return fmt.Errorf("fetching customer cart: %w", err)
	}
	authID := cc.CustomerCart.ID

	// A customer who has never carted gets no id back; create one.
	if authID == "" {
		var created struct {
			CreateEmptyCart string `json:"createEmptyCart"`
		}
		if err := r.gql.Execute(ctx, api.MutationCreateEmptyCart, nil, &created); err != nil {
			r.setState(StateUninitialized)
			return fmt.Errorf("creating customer cart: %w", err)
		}
		authID = created.CreateEmptyCart
	}

	if !handle.IsZero() && handle.Kind == models.CartKindGuest {
		// Merge-on-login. Flipping the persisted kind to authenticated is
		// what guarantees the merge runs at most once per login.
		var out struct {
			MergeCarts models.Cart `json:"mergeCarts"`
		}
		vars := map[string]any{
			"sourceCartId":      handle.ID,
			"destinationCartId": authID,
		}
		if err := r.gql.Execute(ctx, api.MutationMergeCarts, vars, &out); err != nil {
			r.setState(StateUninitialized)
			return fmt.Errorf("merging guest cart: %w", err)
		}
		merged := models.CartHandle{ID: out.MergeCarts.ID, Kind: models.CartKindAuthenticated}
		if err := r.storeHandle(ctx, merged); err != nil {
			r.setState(StateUninitialized)
			return err
		}
		r.activate(merged, out.MergeCarts, StateAuthActive)
		return nil
	}

	snap, err := r.fetchView(ctx, authID)
	if err != nil {
		r.setState(StateUninitialized)
		return fmt.Errorf("fetching customer cart view: %w", err)
	}
	authHandle := models.CartHandle{ID: authID, Kind: models.CartKindAuthenticated}
	if err := r.storeHandle(ctx, authHandle); err != nil {
		r.setState(StateUninitialized)
		return err
	}
	r.activate(authHandle, snap, StateAuthActive)
	return nil
}

func (r *Reconciler) fetchGuestCart(ctx context.Context) error {
	var id string
	if err := r.rest.Post(ctx, "V1/guest-carts", nil, &id, api.WithoutAuth()); err != nil {
		r.clear(ctx)
		r.setState(StateUninitialized)
		return fmt.Errorf("creating guest cart: %w", err)
	}

	handle := models.CartHandle{ID: id, Kind: models.CartKindGuest}
	if err := r.storeHandle(ctx, handle); err != nil {
		r.setState(StateUninitialized)
		return err
	}

	snap, err := r.fetchView(ctx, id)
	if err != nil {
		// A fresh guest cart is empty anyway; keep the handle.
		r.log.Warn(ctx, "fetching fresh guest cart view failed", "err", err)
		snap = models.Cart{ID: id}
	}
	r.activate(handle, snap, StateGuestActive)
	return nil
}

// RefreshSnapshot refetches the active cart's view and replaces the cached
// snapshot. A failed refresh invalidates the handle entirely.
func (r *Reconciler) RefreshSnapshot(ctx context.Context) error {
	handle := r.Handle()
	if handle.IsZero() {
		return ErrNoActiveCart
	}
	snap, err := r.fetchView(ctx, handle.ID)
	if err != nil {
		r.log.Warn(ctx, "cart refresh failed, dropping handle", "cart_id", handle.ID, "err", err)
		r.clear(ctx)
		r.setState(StateUninitialized)
		return fmt.Errorf("refreshing cart: %w", err)
	}
	r.replaceSnapshot(snap)
	return nil
}

func (r *Reconciler) fetchView(ctx context.Context, id string) (models.Cart, error) {
	var out struct {
		Cart models.Cart `json:"cart"`
	}
	err := r.gql.Execute(ctx, api.QueryCartView, map[string]any{"cart_id": id}, &out)
	return out.Cart, err
}

func (r *Reconciler) loadHandle(ctx context.Context) (models.CartHandle, error) {
	raw, err := r.kv.Get(ctx, storage.KeyCart)
	if err != nil {
		return models.CartHandle{}, fmt.Errorf("reading persisted cart handle: %w", err)
	}
	if len(raw) == 0 {
		return models.CartHandle{}, nil
	}
	var handle models.CartHandle
	if err := json.Unmarshal(raw, &handle); err != nil {
		r.log.Warn(ctx, "corrupt persisted cart handle, discarding", "err", err)
		return models.CartHandle{}, nil
	}
	return handle, nil
}

func (r *Reconciler) storeHandle(ctx context.Context, handle models.CartHandle) error {
	raw, err := json.Marshal(handle)
	if err != nil {
		return fmt.Errorf("encoding cart handle: %w", err)
	}
	if err := r.kv.Set(ctx, storage.KeyCart, raw); err != nil {
		return fmt.Errorf("persisting cart handle: %w", err)
	}
	return nil
}

func (r *Reconciler) clear(ctx context.Context) {
	if err := r.kv.Delete(ctx, storage.KeyCart); err != nil {
		r.log.Error(ctx, "failed to delete persisted cart handle", "err", err)
	}
	r.mu.Lock()
	r.handle = models.CartHandle{}
	r.snapshot = models.Cart{}
	r.mu.Unlock()
}

func (r *Reconciler) activate(handle models.CartHandle, snap models.Cart, state State) {
	r.mu.Lock()
	r.handle = handle
	r.snapshot = snap
	r.state = state
	r.mu.Unlock()
}

// replaceSnapshot swaps in a full cart payload returned by a mutation.
func (r *Reconciler) replaceSnapshot(c models.Cart) {
	r.mu.Lock()
	if c.ID == "" {
		c.ID = r.snapshot.ID
	}
	r.snapshot = c
	r.mu.Unlock()
}

// patchSnapshot applies a partial field merge, for mutations that return
// only a sub-object of the cart.
func (r *Reconciler) patchSnapshot(fn func(*models.Cart)) {
	r.mu.Lock()
	fn(&r.snapshot)
	r.mu.Unlock()
}

func (r *Reconciler) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}
