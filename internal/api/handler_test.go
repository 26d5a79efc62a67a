package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-ops/internal/dataservice"
	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/metrics"
	"restaurant-ops/internal/seed"
)

var fixedNow = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

type fixture struct {
	svc *dataservice.Service
	srv *httptest.Server
	reg *prometheus.Registry
}

func newFixture(t *testing.T, checks map[string]Check) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := dataservice.New(dataservice.Options{
		Seed:    seed.Demo(fixedNow),
		Metrics: metrics.New(reg),
		Now:     func() time.Time { return fixedNow },
	})
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)

	srv := httptest.NewServer(NewRouter(Deps{
		Service:   svc,
		Gatherer:  reg,
		Checks:    checks,
		Heartbeat: 50 * time.Millisecond,
	}))
	t.Cleanup(srv.Close)
	return &fixture{svc: svc, srv: srv, reg: reg}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestListEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, "/api/reservations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Reservation](t, resp), 5)

	resp = f.do(t, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Order](t, resp), 4)

	resp = f.do(t, http.MethodGet, "/api/guests", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.CrmEntry](t, resp), 3)

	resp = f.do(t, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.DocumentFile](t, resp), 2)
}

func TestAddReservationAndCheckIn(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPost, "/api/reservations", domain.NewReservation{
		GuestName: "Ada Park",
		PartySize: 2,
		Time:      "20:15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[domain.Reservation](t, resp)
	assert.Equal(t, domain.ReservationPending, created.Status)

	resp = f.do(t, http.MethodPatch, "/api/reservations/"+created.ID+"/status", statusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/reservations/"+created.ID+"/check-in", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	got, ok := findReservation(f.svc.ReservationsSnapshot(), created.ID)
	require.True(t, ok)
	assert.Equal(t, domain.ReservationSeated, got.Status)
}

func findReservation(list []domain.Reservation, id string) (domain.Reservation, bool) {
	for _, r := range list {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Reservation{}, false
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
		typ    string
	}{
		{"invalid body", http.MethodPost, "/api/reservations", domain.NewReservation{PartySize: 2, Time: "20:00"}, http.StatusBadRequest, "invalid_input"},
		{"unknown status", http.MethodPatch, "/api/orders/ORD-1024/status", statusRequest{Status: "lost"}, http.StatusBadRequest, "invalid_input"},
		{"unknown order", http.MethodPatch, "/api/orders/ORD-0000/status", statusRequest{Status: "ready"}, http.StatusNotFound, "not_found"},
		{"unknown guest", http.MethodPost, "/api/guests/nope/toggle-block", nil, http.StatusNotFound, "not_found"},
		{"backwards transition", http.MethodPatch, "/api/orders/ORD-1022/status", statusRequest{Status: "pending"}, http.StatusConflict, "invalid_transition"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.do(t, tc.method, tc.path, tc.body)
			require.Equal(t, tc.code, resp.StatusCode)
			assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
			problem := decode[map[string]any](t, resp)
			assert.Equal(t, tc.typ, problem["type"])
		})
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodPost, "/api/session/sign-in", map[string]string{"mail": "x@y.z"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodPost, "/api/orders", domain.NewOrder{
		TableID:    "T9",
		ServerName: "Sam",
		Total:      18.5,
		Items:      []domain.NewOrderItem{{Name: "Soup", Quantity: 1, Price: 18.5}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	o := decode[domain.Order](t, resp)
	assert.True(t, strings.HasPrefix(o.ID, "ORD-"))
	assert.Equal(t, o.ID, f.svc.OrdersSnapshot()[0].ID)
}

func TestToggleBlock(t *testing.T) {
	f := newFixture(t, nil)
	before := f.svc.GuestsSnapshot()[0]

	resp := f.do(t, http.MethodPost, "/api/guests/"+before.ID+"/toggle-block", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, !before.Blocked, decode[domain.CrmEntry](t, resp).Blocked)
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "wine-list.pdf")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 2048))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := f.srv.Client().Post(f.srv.URL+"/api/documents", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	doc := decode[domain.DocumentFile](t, resp)
	assert.Equal(t, "wine-list.pdf", doc.Name)
	assert.Equal(t, domain.DocumentProcessing, doc.Status)

	resp = f.do(t, http.MethodPatch, "/api/documents/"+doc.ID+"/status", statusRequest{Status: "indexed"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, domain.DocumentIndexed, f.svc.DocumentsSnapshot()[0].Status)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodPost, "/api/documents", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.do(t, http.MethodGet, "/api/search?q=ORD-1024", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode[[]domain.SearchResult](t, resp)
	require.NotEmpty(t, results)
	assert.Equal(t, domain.ResultOrder, results[0].Type)

	resp = f.do(t, http.MethodGet, "/api/search", nil)
	assert.Empty(t, decode[[]domain.SearchResult](t, resp))
}

func TestSession(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[domain.Session](t, resp)
	assert.True(t, s.Demo)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, map[string]Check{
		"database": func(context.Context) error { return nil },
	})
	resp := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, false, body["remote"])
	assert.Equal(t, map[string]any{"database": "ok"}, body["checks"])

	down := newFixture(t, map[string]Check{
		"broker": func(context.Context) error { return errors.New("connection refused") },
	})
	resp = down.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/guests/c1/toggle-block", nil)

	resp := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "toggle_block_user")
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if data != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestStream_SnapshotsFollowMutations(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/api/stream/guests", nil)
	require.NoError(t, err)
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	event, data := readEvent(t, r)
	assert.Equal(t, "guests", event)
	var first []domain.CrmEntry
	require.NoError(t, json.Unmarshal([]byte(data), &first))
	require.Len(t, first, 3)
	assert.False(t, first[0].Blocked)

	_, err = f.svc.ToggleBlockUser(context.Background(), first[0].ID)
	require.NoError(t, err)

	_, data = readEvent(t, r)
	var second []domain.CrmEntry
	require.NoError(t, json.Unmarshal([]byte(data), &second))
	assert.True(t, second[0].Blocked)
}

func TestStream_UnknownCollection(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/api/stream/menus", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
