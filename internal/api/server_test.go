package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"regift/internal/config"
	"regift/internal/convert"
	"regift/internal/history"
	"regift/internal/logging"
	"regift/internal/metrics"
	"regift/internal/services"
	"regift/internal/testsupport"
	"regift/internal/timeplan"
)

type stubConverter struct {
	mu   sync.Mutex
	reqs []convert.Request
	path string
	err  error
}

func (s *stubConverter) Convert(_ context.Context, req convert.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.path, s.err
}

func (s *stubConverter) last(t *testing.T) convert.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reqs) == 0 {
		t.Fatal("converter was not called")
	}
	return s.reqs[len(s.reqs)-1]
}

type stubHistory struct {
	entries []history.Entry
}

func (s *stubHistory) List(_ context.Context, limit int) ([]history.Entry, error) {
	if limit > 0 && limit < len(s.entries) {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func (s *stubHistory) Get(_ context.Context, id string) (*history.Entry, error) {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}

func newTestServer(t *testing.T, cfg *config.Config, conv Converter, hist HistoryReader) *Server {
	t.Helper()
	srv, err := NewServer(cfg, conv, hist, metrics.New(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConvertMapsBodyOntoRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	conv := &stubConverter{path: "/tmp/out.gif"}
	srv := newTestServer(t, cfg, conv, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/conversions",
		`{"source":"/media/in.mp4","frame_count":5,"delay_seconds":0.2,"start_seconds":1.5,"loop_count":3,"timeout_seconds":2}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp ConversionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Destination != "/tmp/out.gif" {
		t.Fatalf("destination = %q", resp.Destination)
	}

	req := conv.last(t)
	if req.Source != "/media/in.mp4" || req.FrameCount != 5 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Delay != 200*time.Millisecond {
		t.Fatalf("delay = %v", req.Delay)
	}
	if req.Start != timeplan.FromSeconds(1.5) {
		t.Fatalf("start = %v", req.Start)
	}
	if req.LoopCount != 3 {
		t.Fatalf("loop = %d", req.LoopCount)
	}
	if req.Timeout != 2*time.Second {
		t.Fatalf("timeout = %v", req.Timeout)
	}
}

func TestConvertFallsBackToConfiguredDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithConversion(func(c *config.Conversion) {
		c.FrameCount = 12
		c.LoopCount = 4
	}))
	conv := &stubConverter{path: "/tmp/out.gif"}
	srv := newTestServer(t, cfg, conv, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/conversions", `{"source":"/media/in.mp4"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	req := conv.last(t)
	if req.FrameCount != 12 || req.LoopCount != 4 {
		t.Fatalf("defaults not applied: %+v", req)
	}

	do(t, srv.Handler(), http.MethodPost, "/v1/conversions", `{"source":"/media/in.mp4","frame_rate":10,"loop_count":0}`, "")
	req = conv.last(t)
	if req.FrameCount != 0 || req.FrameRate != 10 || req.LoopCount != 0 {
		t.Fatalf("explicit rate request altered: %+v", req)
	}

	do(t, srv.Handler(), http.MethodPost, "/v1/conversions", `{"source":"/media/in.mp4","time_points_seconds":[0.5,1]}`, "")
	req = conv.last(t)
	if req.FrameCount != 0 || len(req.TimePoints) != 2 || req.TimePoints[1] != timeplan.FromSeconds(1) {
		t.Fatalf("time points request altered: %+v", req)
	}
}

func TestConvertRejectsMalformedBody(t *testing.T) {
	conv := &stubConverter{}
	srv := newTestServer(t, testsupport.NewConfig(t), conv, nil)

	for _, body := range []string{`{"source":`, `{"source":"a","unknown":1}`} {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/conversions", body, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, rec.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Kind != "invalid_request" {
			t.Fatalf("kind = %q", resp.Kind)
		}
	}
	if len(conv.reqs) != 0 {
		t.Fatalf("converter called for malformed body")
	}
}

type validatingConverter struct{}

func (validatingConverter) Convert(_ context.Context, req convert.Request) (string, error) {
	return "/out.gif", req.Validate()
}

func TestConvertRejectsHugeFrameCount(t *testing.T) {
	srv := newTestServer(t, testsupport.NewConfig(t), validatingConverter{}, nil)
	rec := do(t, srv.Handler(), http.MethodPost, "/v1/conversions",
		`{"source":"/media/a.mp4","frame_count":2000000000,"duration_seconds":3500000}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != "invalid_request" || !strings.Contains(resp.Error, "exceeds the limit") {
		t.Fatalf("unexpected error response %+v", resp)
	}
}

func TestConvertErrorStatus(t *testing.T) {
	cases := []struct {
		marker error
		status int
		kind   string
	}{
		{services.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
		{services.ErrSourceFormatInvalid, http.StatusUnprocessableEntity, "source_format_invalid"},
		{services.ErrDestinationUnavailable, http.StatusConflict, "destination_unavailable"},
		{services.ErrTimeout, http.StatusGatewayTimeout, "timeout"},
		{services.ErrCanceled, http.StatusServiceUnavailable, "canceled"},
		{services.ErrFrameExtractionFailed, http.StatusInternalServerError, "frame_extraction_failed"},
		{services.ErrEncodeFinalizeFailed, http.StatusInternalServerError, "encode_finalize_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			conv := &stubConverter{err: services.Wrap(tc.marker, "convert", "run", "boom", nil)}
			srv := newTestServer(t, testsupport.NewConfig(t), conv, nil)
			rec := do(t, srv.Handler(), http.MethodPost, "/v1/conversions", `{"source":"/media/in.mp4"}`, "")
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Kind != tc.kind {
				t.Fatalf("kind = %q, want %q", resp.Kind, tc.kind)
			}
		})
	}
}

func TestAuthRequiredOnV1Routes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("secret"))
	srv := newTestServer(t, cfg, &stubConverter{}, &stubHistory{})
	h := srv.Handler()

	if rec := do(t, h, http.MethodGet, "/v1/conversions", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/conversions", "", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/conversions", "", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz should not require auth: status = %d", rec.Code)
	}
}

func TestHistoryRoutes(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)
	hist := &stubHistory{entries: []history.Entry{
		{ID: "b", SourcePath: "/media/b.mp4", Status: history.StatusFailed, Mode: "frame_count", ErrorKind: "timeout", StartedAt: started.Add(time.Minute)},
		{ID: "a", SourcePath: "/media/a.mp4", Destination: "/out/a.gif", Status: history.StatusSucceeded, Mode: "frame_count", FrameCount: 5, FramesAppended: 5, StartedAt: started, FinishedAt: &finished},
	}}
	srv := newTestServer(t, testsupport.NewConfig(t), &stubConverter{}, hist)
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/v1/conversions?limit=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list HistoryListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != "b" || list.Items[0].ErrorKind != "timeout" {
		t.Fatalf("unexpected list %+v", list.Items)
	}

	rec = do(t, h, http.MethodGet, "/v1/conversions/a", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var item HistoryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.Destination != "/out/a.gif" || item.ElapsedMS != 1500 || item.StartedAt != "2026-03-01T12:00:00.000Z" {
		t.Fatalf("unexpected item %+v", item)
	}

	if rec := do(t, h, http.MethodGet, "/v1/conversions/missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/conversions?limit=x", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}
}

func TestHistoryWithoutStoreIsEmpty(t *testing.T) {
	srv := newTestServer(t, testsupport.NewConfig(t), &stubConverter{}, nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/v1/conversions", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty items, got %s", rec.Body.String())
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	srv := newTestServer(t, testsupport.NewConfig(t), &stubConverter{err: errors.New("boom")}, nil)
	h := srv.Handler()
	do(t, h, http.MethodPost, "/v1/conversions", `{"source":"/media/in.mp4"}`, "")

	rec := do(t, h, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "regift_http_requests_total") || !strings.Contains(body, "regift_http_errors_total 1") {
		t.Fatalf("metrics missing request counters:\n%s", body)
	}
}

func TestStartServesUntilContextDone(t *testing.T) {
	srv := newTestServer(t, testsupport.NewConfig(t), &stubConverter{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	srv.Stop()
}

func TestNewServerValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := NewServer(nil, &stubConverter{}, nil, nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewServer(cfg, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for nil converter")
	}
	cfg.API.Bind = " "
	if _, err := NewServer(cfg, &stubConverter{}, nil, nil, nil); err == nil {
		t.Fatal("expected error for empty bind")
	}
}
