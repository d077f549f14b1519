// Package cli is an interactive storefront shell. It wires the stores
// together and drives them the way the web front end would: reconcile after
// startup and after every auth transition, credit leveling after every cart
// change.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/anhthuvo/storefront/internal/api"
	"github.com/anhthuvo/storefront/internal/config"
	"github.com/anhthuvo/storefront/internal/logging"
	"github.com/anhthuvo/storefront/internal/spool"
	"github.com/anhthuvo/storefront/internal/storage"
	"github.com/anhthuvo/storefront/internal/store/cart"
	"github.com/anhthuvo/storefront/internal/store/credit"
	"github.com/anhthuvo/storefront/internal/store/session"
	"github.com/anhthuvo/storefront/internal/store/tracking"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	db      *sql.DB
	sp      *spool.Spool
	session *session.Manager
	cart    *cart.Reconciler
	credit  *credit.Reconciler
	emitter *tracking.Emitter
	log     logging.Logger
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.Default())

	db, kv, err := storage.Open(ctx, cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	rest := api.NewRestClient(cfg.ShopAPIURL, cfg.StoreCode, api.WithTimeout(cfg.RequestTimeout))
	gql := api.NewGraphQLClient(cfg.GraphQLURL, api.WithGraphQLTimeout(cfg.RequestTimeout))

	sess := session.NewManager(rest, kv, log, cfg.StoreID)
	rest.SetTokenSource(sess)
	gql.SetTokenSource(sess)

	cartStore := cart.NewReconciler(rest, gql, kv, sess, log)
	creditStore := credit.NewReconciler(rest, cartStore, sess, log, credit.Options{
		DisablePerks: cfg.DisablePerks,
		ForceApply:   cfg.ForceCreditApply,
	})

	sp, err := spool.Open(cfg.SpoolPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	var conversion *tracking.ConversionClient
	if cfg.FacebookConversionToken != "" {
		geo := tracking.NewGeoCache(cfg.GeoLookupURL, kv, log)
		conversion = tracking.NewConversionClient(cfg.ConversionEndpoint, cfg.FacebookPixelID, cfg.FacebookConversionToken, geo, sp, log)
		conversion.StartFlusher(ctx)
	}

	var facebook, google tracking.Analytics
	if cfg.FacebookPixelID != "" {
		facebook = &tracking.LogSink{SinkName: "facebook", PixelID: cfg.FacebookPixelID, Log: log}
	}
	if cfg.GoogleConversionID != "" {
		google = &tracking.LogSink{SinkName: "google", PixelID: cfg.GoogleConversionID, Log: log}
	}
	emitter := tracking.NewEmitter(facebook, google, conversion, log)
	emitter.GoogleSendTo = cfg.GoogleConversionID

	return &App{
		config:  cfg,
		db:      db,
		sp:      sp,
		session: sess,
		cart:    cartStore,
		credit:  creditStore,
		emitter: emitter,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run restores the persisted session, reconciles the cart, and enters the
// command loop.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.session.LoadFromStorage(ctx); err != nil {
		a.log.Warn(ctx, "restoring session failed", "err", err)
	}
	if err := a.cart.Reconcile(ctx); err != nil {
		a.log.Warn(ctx, "cart reconcile failed", "err", err)
	}
	if a.session.IsAuthenticated() {
		a.credit.HandleLogin(ctx)
		a.credit.HandleCartChange(ctx)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
	return nil
}

func (a *App) Close() {
	a.emitter.Flush()
	if err := a.sp.Close(); err != nil {
		a.log.Error(context.Background(), "closing spool failed", "err", err)
	}
	if err := a.db.Close(); err != nil {
		a.log.Error(context.Background(), "closing storage failed", "err", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) status() string {
	s := ""
	if user := a.session.User(); user != nil {
		s = user.Email + " "
	}
	s += string(a.cart.State())
	return "(" + s + ")"
}
