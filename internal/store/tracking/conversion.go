package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/anhthuvo/storefront/internal/logging"
	"github.com/anhthuvo/storefront/internal/models"
	"github.com/anhthuvo/storefront/internal/spool"
)

const (
	conversionTimeout = 10 * time.Second
	maxRetries        = 5
	flushInterval     = time.Minute
	flushBatch        = 25
)

// ConversionClient posts server-side conversion events to the pixel graph
// endpoint. Undeliverable events land in the spool; StartFlusher retries
// them in the background until maxRetries.
type ConversionClient struct {
	endpoint    string
	pixelID     string
	accessToken string
	hc          *fasthttp.Client
	geo         *GeoCache
	spool       *spool.Spool
	log         logging.Logger
	userAgent   string
}

func NewConversionClient(endpoint, pixelID, accessToken string, geo *GeoCache, sp *spool.Spool, log logging.Logger) *ConversionClient {
	return &ConversionClient{
		endpoint:    endpoint,
		pixelID:     pixelID,
		accessToken: accessToken,
		hc:          &fasthttp.Client{},
		geo:         geo,
		spool:       sp,
		log:         log,
		userAgent:   "storefront/1.0",
	}
}

// SetHTTPClient replaces the underlying fasthttp client.
func (c *ConversionClient) SetHTTPClient(hc *fasthttp.Client) { c.hc = hc }

// SetUserAgent overrides the client_user_agent attached to events.
func (c *ConversionClient) SetUserAgent(ua string) { c.userAgent = ua }

// Send builds and posts one conversion event. On delivery failure the event
// is spooled for the background flusher and the original error is returned
// for logging.
func (c *ConversionClient) Send(ctx context.Context, eventName string, customData map[string]any) error {
	ev := models.ConversionEvent{
		EventID:      uuid.NewString(),
		EventName:    eventName,
		EventTime:    time.Now().Unix(),
		ActionSource: "website",
		UserData: models.ConversionUserData{
			ClientIPAddress: c.geo.IP(ctx),
			ClientUserAgent: c.userAgent,
		},
		CustomData: customData,
	}

	payload, err := json.Marshal(map[string]any{"data": []models.ConversionEvent{ev}})
	if err != nil {
		return fmt.Errorf("encoding conversion event: %w", err)
	}

	if err := c.post(payload); err != nil {
		if c.spool != nil {
			if serr := c.spool.Enqueue(spool.Item{ID: ev.EventID, Payload: payload}); serr != nil {
				c.log.Error(ctx, "spooling conversion event failed", "event_id", ev.EventID, "err", serr)
			}
		}
		return err
	}
	return nil
}

func (c *ConversionClient) post(payload []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint + "/" + c.pixelID + "/events?access_token=" + url.QueryEscape(c.accessToken))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := c.hc.DoDeadline(req, resp, time.Now().Add(conversionTimeout)); err != nil {
		return fmt.Errorf("posting conversion event: %w", err)
	}
	if status := resp.StatusCode(); status >= 400 {
		return fmt.Errorf("conversion endpoint returned %d", status)
	}
	return nil
}

// StartFlusher drains the spool on a fixed interval until ctx is cancelled.
func (c *ConversionClient) StartFlusher(ctx context.Context) {
	if c.spool == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.flushOnce(ctx)
			}
		}
	}()
}

func (c *ConversionClient) flushOnce(ctx context.Context) {
	items, err := c.spool.Batch(flushBatch)
	if err != nil {
		c.log.Error(ctx, "reading conversion spool failed", "err", err)
		return
	}
	for _, item := range items {
		if err := c.post(item.Payload); err != nil {
			if item.Retries+1 >= maxRetries {
				c.log.Warn(ctx, "dropping conversion event after retries", "event_id", item.ID, "retries", item.Retries)
				if rerr := c.spool.Remove(item); rerr != nil {
					c.log.Error(ctx, "removing conversion event failed", "err", rerr)
				}
				continue
			}
			if rerr := c.spool.Requeue(item); rerr != nil {
				c.log.Error(ctx, "requeueing conversion event failed", "err", rerr)
			}
			continue
		}
		if err := c.spool.Remove(item); err != nil {
			c.log.Error(ctx, "removing delivered conversion event failed", "err", err)
		}
	}
}
