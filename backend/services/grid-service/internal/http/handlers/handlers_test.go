package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"gridpulse/backend/services/grid-service/internal/fetcher"
	"gridpulse/backend/services/grid-service/internal/ingest"
	"gridpulse/backend/services/grid-service/internal/models"
)

type fakeTrigger struct {
	sample    *models.TelemetrySample
	items     []models.NewsItem
	err       error
	mu        sync.Mutex
	telemetry int
	news      int
}

func (f *fakeTrigger) RunTelemetry(context.Context) (*models.TelemetrySample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.telemetry++
	return f.sample, f.err
}

func (f *fakeTrigger) RunNews(context.Context) ([]models.NewsItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.news++
	return f.items, f.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestTriggerHandlersSuccess(t *testing.T) {
	freq := 50.02
	stable := models.StatusStable
	trigger := &fakeTrigger{
		sample: &models.TelemetrySample{ID: "t1", FrequencyHz: &freq, Status: &stable, Source: "power.gov.ng"},
		items:  []models.NewsItem{{ID: "n1", Title: "Commission Announces Tariff Review", Type: models.NewsUpdate}},
	}

	rec := httptest.NewRecorder()
	NewTelemetryTriggerHandler(trigger, zap.NewNop())(rec, httptest.NewRequest(http.MethodPost, "/ingest/telemetry", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("telemetry status %d", rec.Code)
	}
	var sample models.TelemetrySample
	if err := json.Unmarshal(decodeBody(t, rec)["sample"], &sample); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	if sample.ID != "t1" || *sample.Status != models.StatusStable {
		t.Fatalf("unexpected sample %+v", sample)
	}

	rec = httptest.NewRecorder()
	NewNewsTriggerHandler(trigger, zap.NewNop())(rec, httptest.NewRequest(http.MethodPost, "/ingest/news", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("news status %d", rec.Code)
	}
	if got := string(decodeBody(t, rec)["inserted"]); got != "1" {
		t.Fatalf("inserted = %s", got)
	}
}

func TestNewsTriggerNothingNew(t *testing.T) {
	rec := httptest.NewRecorder()
	NewNewsTriggerHandler(&fakeTrigger{}, zap.NewNop())(rec, httptest.NewRequest(http.MethodPost, "/ingest/news", nil))
	body := decodeBody(t, rec)
	if string(body["inserted"]) != "0" || string(body["items"]) != "[]" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestTriggerErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"in progress", ingest.ErrRunInProgress, http.StatusConflict},
		{"upstream", &ingest.IngestError{Stream: models.StreamTelemetry, Stage: ingest.StageFetching, Err: &fetcher.FetchError{URL: "http://power.gov.ng/", StatusCode: 503}}, http.StatusBadGateway},
		{"persist", &ingest.IngestError{Stream: models.StreamTelemetry, Stage: ingest.StagePersisting, Err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewTelemetryTriggerHandler(&fakeTrigger{err: tc.err}, zap.NewNop())(rec, httptest.NewRequest(http.MethodPost, "/ingest/telemetry", nil))
			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d", rec.Code, tc.want)
			}
			if _, ok := decodeBody(t, rec)["error"]; !ok {
				t.Fatal("missing error field")
			}
		})
	}
}

type fakeReads struct {
	latest  *models.TelemetrySample
	count   int64
	news    []models.NewsItem
	reports []models.PowerReport
	err     error

	mu         sync.Mutex
	lastLimits []int
}

func (f *fakeReads) Latest(context.Context) (*models.TelemetrySample, error) { return f.latest, f.err }
func (f *fakeReads) Count(context.Context) (int64, error)                   { return f.count, f.err }

func (f *fakeReads) Recent(_ context.Context, limit int) ([]models.PowerReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimits = append(f.lastLimits, limit)
	return f.reports, f.err
}

type fakeNews struct {
	items []models.NewsItem
	limit int
}

func (f *fakeNews) Recent(_ context.Context, limit int) ([]models.NewsItem, error) {
	f.limit = limit
	return f.items, nil
}

func TestSnapshotWithoutData(t *testing.T) {
	rec := httptest.NewRecorder()
	NewSnapshotHandler(&fakeReads{}, &fakeReads{}, zap.NewNop())(rec, httptest.NewRequest(http.MethodGet, "/grid/snapshot", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)
	for _, field := range []string{"generation", "frequency", "load", "status", "last_updated"} {
		if string(body[field]) != "null" {
			t.Errorf("%s = %s, want null", field, body[field])
		}
	}
	if string(body["reports"]) != "0" {
		t.Errorf("reports = %s", body["reports"])
	}
}

func TestSnapshotWithSample(t *testing.T) {
	gen, freq := 4919.9, 48.7
	critical := models.StatusCritical
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	reads := &fakeReads{
		latest: &models.TelemetrySample{GenerationMW: &gen, FrequencyHz: &freq, Status: &critical, CreatedAt: at},
		count:  12,
	}

	rec := httptest.NewRecorder()
	NewSnapshotHandler(reads, reads, zap.NewNop())(rec, httptest.NewRequest(http.MethodGet, "/grid/snapshot", nil))
	var snapshot models.GridSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if *snapshot.GenerationMW != gen || *snapshot.FrequencyHz != freq || snapshot.LoadPercent != nil {
		t.Fatalf("unexpected values %+v", snapshot)
	}
	if *snapshot.Status != models.StatusCritical || *snapshot.Reports != 12 || !snapshot.LastUpdated.Equal(at) {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestSnapshotReadFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	reads := &fakeReads{err: errors.New("db down")}
	NewSnapshotHandler(reads, reads, zap.NewNop())(rec, httptest.NewRequest(http.MethodGet, "/grid/snapshot", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestRecentNews(t *testing.T) {
	news := &fakeNews{items: []models.NewsItem{{ID: "n1", Title: "a"}, {ID: "n2", Title: "b"}}}
	rec := httptest.NewRecorder()
	NewRecentNewsHandler(news, zap.NewNop())(rec, httptest.NewRequest(http.MethodGet, "/news/recent", nil))

	var body struct {
		News []models.NewsItem `json:"news"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.News) != 2 || news.limit != recentNewsLimit {
		t.Fatalf("unexpected result %+v limit=%d", body.News, news.limit)
	}
}

func TestRecentReportsLimit(t *testing.T) {
	cases := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", http.StatusOK, 10},
		{"?limit=3", http.StatusOK, 3},
		{"?limit=500", http.StatusOK, 50},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("limit%s", tc.query), func(t *testing.T) {
			reads := &fakeReads{}
			rec := httptest.NewRecorder()
			NewRecentReportsHandler(reads, zap.NewNop())(rec, httptest.NewRequest(http.MethodGet, "/reports/recent"+tc.query, nil))
			if rec.Code != tc.wantCode {
				t.Fatalf("status %d, want %d", rec.Code, tc.wantCode)
			}
			if tc.wantCode != http.StatusOK {
				if len(reads.lastLimits) != 0 {
					t.Fatal("repository must not be queried on bad input")
				}
				return
			}
			if len(reads.lastLimits) != 1 || reads.lastLimits[0] != tc.wantLimit {
				t.Fatalf("limits = %v", reads.lastLimits)
			}
			if !strings.Contains(rec.Body.String(), `"reports":[]`) {
				t.Fatalf("expected empty list, got %s", rec.Body.String())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
