package tracking

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/anhthuvo/storefront/internal/logging"
	"github.com/anhthuvo/storefront/internal/models"
	"github.com/anhthuvo/storefront/internal/storage"
)

// GeoCache resolves the visitor's public IP once and keeps it in the KV
// store under the "location" key. A failed lookup leaves the cache empty;
// the next IP() call simply tries again.
type GeoCache struct {
	lookupURL string
	kv        storage.Repository
	hc        *fasthttp.Client
	log       logging.Logger

	mu  sync.Mutex
	loc *models.Location
}

func NewGeoCache(lookupURL string, kv storage.Repository, log logging.Logger) *GeoCache {
	return &GeoCache{
		lookupURL: lookupURL,
		kv:        kv,
		hc:        &fasthttp.Client{},
		log:       log,
	}
}

// SetHTTPClient replaces the underlying fasthttp client.
func (g *GeoCache) SetHTTPClient(hc *fasthttp.Client) { g.hc = hc }

// Location returns the cached location, fetching it lazily on first use.
func (g *GeoCache) Location(ctx context.Context) models.Location {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.loc != nil {
		return *g.loc
	}

	if raw, err := g.kv.Get(ctx, storage.KeyLocation); err == nil && len(raw) > 0 {
		var loc models.Location
		jerr := json.Unmarshal(raw, &loc)
		if jerr == nil {
			g.loc = &loc
			return loc
		}
		g.log.Warn(ctx, "corrupt persisted location, refetching", "err", jerr)
	}

	loc, err := g.fetch()
	if err != nil {
		g.log.Warn(ctx, "geo lookup failed", "err", err)
		return models.Location{}
	}
	g.loc = &loc

	if raw, err := json.Marshal(loc); err == nil {
		if err := g.kv.Set(ctx, storage.KeyLocation, raw); err != nil {
			g.log.Warn(ctx, "persisting location failed", "err", err)
		}
	}
	return loc
}

// IP is a convenience accessor for conversion events.
func (g *GeoCache) IP(ctx context.Context) string {
	return g.Location(ctx).IP
}

func (g *GeoCache) fetch() (models.Location, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(g.lookupURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := g.hc.DoDeadline(req, resp, time.Now().Add(conversionTimeout)); err != nil {
		return models.Location{}, err
	}

	var loc models.Location
	if err := json.Unmarshal(resp.Body(), &loc); err != nil {
		return models.Location{}, err
	}
	return loc, nil
}
