package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anhthuvo/storefront/internal/logging"
	"github.com/anhthuvo/storefront/internal/models"
	"github.com/anhthuvo/storefront/internal/spool"
	"github.com/anhthuvo/storefront/internal/storage"
)

// ---- fakes ----

type recordingSink struct {
	mu     sync.Mutex
	name   string
	events []string
	props  []map[string]any
	err    error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Track(event string, props map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	s.props = append(s.props, props)
	return nil
}

func (s *recordingSink) tracked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memKV) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) List(ctx context.Context) (map[string][]byte, error) {
	return nil, nil
}

func (m *memKV) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testSpool(t *testing.T) *spool.Spool {
	t.Helper()
	s, err := spool.Open(filepath.Join(t.TempDir(), "spool.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testGeo(t *testing.T, ip string) *GeoCache {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"ip":%q,"country":"VN"}`, ip)
	}))
	t.Cleanup(srv.Close)
	return NewGeoCache(srv.URL, newMemKV(), testLogger())
}

// ---- emitter ----

func TestEmitter_DispatchesToBothSinks(t *testing.T) {
	fb := &recordingSink{name: "facebook"}
	gg := &recordingSink{name: "google"}
	e := NewEmitter(fb, gg, nil, testLogger())

	e.Track(context.Background(), Event{
		Name:         "AddToCart",
		FacebookData: map[string]any{"content_ids": []string{"mug"}},
		GoogleData:   map[string]any{"items": []string{"mug"}},
	})
	e.Flush()

	require.Equal(t, []string{"AddToCart"}, fb.tracked())
	require.Equal(t, []string{"AddToCart"}, gg.tracked())
}

func TestEmitter_GoogleSendToEmitsExtraConversion(t *testing.T) {
	gg := &recordingSink{name: "google"}
	e := NewEmitter(nil, gg, nil, testLogger())
	e.GoogleSendTo = "AW-123/abc"

	e.Track(context.Background(), Event{Name: "Purchase"})
	e.Flush()

	require.Equal(t, []string{"Purchase", "conversion"}, gg.tracked())
	require.Equal(t, "AW-123/abc", gg.props[1]["send_to"])
}

func TestEmitter_SinkFailureIsSwallowed(t *testing.T) {
	fb := &recordingSink{name: "facebook", err: errors.New("pixel blocked")}
	gg := &recordingSink{name: "google"}
	e := NewEmitter(fb, gg, nil, testLogger())

	e.Track(context.Background(), Event{Name: "ViewContent"})
	e.Flush()

	// the failing sink must not stop the other one
	require.Equal(t, []string{"ViewContent"}, gg.tracked())
}

// ---- conversion client ----

func TestConversionClient_SendPostsEvent(t *testing.T) {
	var got struct {
		Data []models.ConversionEvent `json:"data"`
	}
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	c := NewConversionClient(srv.URL, "px-1", "secret-token", testGeo(t, "203.0.113.9"), nil, testLogger())
	require.NoError(t, c.Send(context.Background(), "Purchase", map[string]any{"value": 25}))

	require.Contains(t, query, "access_token=secret-token")
	require.Len(t, got.Data, 1)
	ev := got.Data[0]
	require.Equal(t, "Purchase", ev.EventName)
	require.Equal(t, "website", ev.ActionSource)
	require.NotEmpty(t, ev.EventID)
	require.NotZero(t, ev.EventTime)
	require.Equal(t, "203.0.113.9", ev.UserData.ClientIPAddress)
}

func TestConversionClient_FailureSpoolsEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	sp := testSpool(t)
	c := NewConversionClient(srv.URL, "px-1", "tok", testGeo(t, "203.0.113.9"), sp, testLogger())

	require.Error(t, c.Send(context.Background(), "Purchase", nil))

	n, err := sp.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestConversionClient_FlushDeliversSpooled(t *testing.T) {
	var delivered int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered++
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	sp := testSpool(t)
	require.NoError(t, sp.Enqueue(spool.Item{ID: "ev-1", Payload: json.RawMessage(`{"data":[]}`)}))

	c := NewConversionClient(srv.URL, "px-1", "tok", testGeo(t, ""), sp, testLogger())
	c.flushOnce(context.Background())

	require.Equal(t, 1, delivered)
	n, err := sp.Len()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestConversionClient_FlushDropsAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	sp := testSpool(t)
	require.NoError(t, sp.Enqueue(spool.Item{ID: "ev-1", Payload: json.RawMessage(`{}`), Retries: maxRetries - 1}))

	c := NewConversionClient(srv.URL, "px-1", "tok", testGeo(t, ""), sp, testLogger())
	c.flushOnce(context.Background())

	n, err := sp.Len()
	require.NoError(t, err)
	require.Zero(t, n)
}

// ---- geo cache ----

func TestGeoCache_FetchesOnceAndPersists(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"ip":"198.51.100.7","city":"Hanoi","country":"VN"}`)
	}))
	t.Cleanup(srv.Close)

	kv := newMemKV()
	g := NewGeoCache(srv.URL, kv, testLogger())
	ctx := context.Background()

	require.Equal(t, "198.51.100.7", g.IP(ctx))
	require.Equal(t, "198.51.100.7", g.IP(ctx))
	require.Equal(t, 1, calls)

	raw, err := kv.Get(ctx, storage.KeyLocation)
	require.NoError(t, err)
	var loc models.Location
	require.NoError(t, json.Unmarshal(raw, &loc))
	require.Equal(t, "VN", loc.Country)
}

func TestGeoCache_UsesPersistedLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no lookup expected")
	}))
	t.Cleanup(srv.Close)

	kv := newMemKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyLocation, []byte(`{"ip":"192.0.2.1"}`)))

	g := NewGeoCache(srv.URL, kv, testLogger())
	require.Equal(t, "192.0.2.1", g.IP(ctx))
}

func TestGeoCache_LookupFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	g := NewGeoCache(srv.URL, newMemKV(), testLogger())
	require.Empty(t, g.IP(context.Background()))
}
