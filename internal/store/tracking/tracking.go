// Package tracking fans analytics events out to the configured sinks and to
// the server-side conversion API. Tracking is strictly fire-and-forget: it
// never blocks the caller and never surfaces a failure beyond a log line.
package tracking

import (
	"context"
	"sync"

	"github.com/anhthuvo/storefront/internal/logging"
)

// Event is one analytics occurrence. FacebookData and GoogleData carry the
// sink-specific property maps; CustomData feeds the server-side conversion
// event.
type Event struct {
	Name         string
	FacebookData map[string]any
	GoogleData   map[string]any
	CustomData   map[string]any
}

// Analytics is a pixel or tag sink.
type Analytics interface {
	// Name identifies the sink in logs.
	Name() string
	// Track delivers one event. Implementations must tolerate being called
	// from multiple goroutines.
	Track(event string, props map[string]any) error
}

// NoOp is the sink used when a pixel id is not configured.
type NoOp struct{}

func (NoOp) Name() string                       { return "noop" }
func (NoOp) Track(string, map[string]any) error { return nil }

// LogSink records events to the structured log. It stands in for a browser
// pixel in environments without one.
type LogSink struct {
	SinkName string
	PixelID  string
	Log      logging.Logger
}

func (s *LogSink) Name() string { return s.SinkName }

func (s *LogSink) Track(event string, props map[string]any) error {
	s.Log.Debug(context.Background(), "tracking event", "sink", s.SinkName, "pixel_id", s.PixelID, "event", event, "props", props)
	return nil
}

// Emitter dispatches events to the facebook and google sinks plus, when
// configured, the conversion API client.
type Emitter struct {
	facebook   Analytics
	google     Analytics
	conversion *ConversionClient
	log        logging.Logger

	// GoogleSendTo, when set, makes every event emit an extra "conversion"
	// event to the google sink with this destination.
	GoogleSendTo string

	wg sync.WaitGroup
}

func NewEmitter(facebook, google Analytics, conversion *ConversionClient, log logging.Logger) *Emitter {
	if facebook == nil {
		facebook = NoOp{}
	}
	if google == nil {
		google = NoOp{}
	}
	return &Emitter{
		facebook:   facebook,
		google:     google,
		conversion: conversion,
		log:        log,
	}
}

// Track dispatches the event asynchronously and returns immediately.
func (e *Emitter) Track(ctx context.Context, ev Event) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.dispatch(context.WithoutCancel(ctx), ev)
	}()
}

// Flush waits for all in-flight dispatches. Used on shutdown and in tests.
func (e *Emitter) Flush() {
	e.wg.Wait()
}

func (e *Emitter) dispatch(ctx context.Context, ev Event) {
	if err := e.facebook.Track(ev.Name, ev.FacebookData); err != nil {
		e.log.Warn(ctx, "facebook tracking failed", "sink", e.facebook.Name(), "event", ev.Name, "err", err)
	}
	if err := e.google.Track(ev.Name, ev.GoogleData); err != nil {
		e.log.Warn(ctx, "google tracking failed", "sink", e.google.Name(), "event", ev.Name, "err", err)
	}
	if e.GoogleSendTo != "" {
		if err := e.google.Track("conversion", map[string]any{"send_to": e.GoogleSendTo}); err != nil {
			e.log.Warn(ctx, "google conversion tracking failed", "err", err)
		}
	}
	if e.conversion != nil {
		if err := e.conversion.Send(ctx, ev.Name, ev.CustomData); err != nil {
			e.log.Warn(ctx, "conversion event delivery failed", "event", ev.Name, "err", err)
		}
	}
}
