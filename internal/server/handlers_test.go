package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"interview-integrity/backend/internal/event"
	eventdomain "interview-integrity/backend/internal/event/domain"
	"interview-integrity/backend/internal/observation"
	"interview-integrity/backend/internal/report"
	sessiondomain "interview-integrity/backend/internal/session/domain"
)

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memSessionRepo) ListActive(ctx context.Context) ([]*sessiondomain.Session, error) {
	return nil, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) Finalize(ctx context.Context, id string, endedAt time.Time, recordingURL string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok || s.EndedAt != nil {
		return false, nil
	}
	t := endedAt
	s.EndedAt = &t
	if recordingURL != "" {
		s.RecordingURL = recordingURL
	}
	return true, nil
}

func (r *memSessionRepo) SetFinalScore(ctx context.Context, id string, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.FinalScore = &score
	}
	return nil
}

type memEventRepo struct {
	mu sync.Mutex
	m  map[string][]*eventdomain.Event
}

func (r *memEventRepo) Append(ctx context.Context, e *eventdomain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e2 := *e
	r.m[e.SessionID] = append(r.m[e.SessionID], &e2)
	return nil
}

func (r *memEventRepo) ListBySession(ctx context.Context, sessionID string) ([]*eventdomain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventdomain.Event(nil), r.m[sessionID]...), nil
}

func newTestServer(t *testing.T) (http.Handler, *memSessionRepo, *memEventRepo) {
	t.Helper()
	sessions := &memSessionRepo{m: make(map[string]*sessiondomain.Session)}
	events := &memEventRepo{m: make(map[string][]*eventdomain.Event)}
	logger := zerolog.Nop()

	log := event.NewLog(sessions, events, nil, logger)
	reports := report.NewService(sessions, events, nil, logger)
	router := NewRouter(Deps{
		Sessions:     sessions,
		Events:       log,
		Reports:      reports,
		Observations: observation.NewQueue(0),
		Logger:       logger,
	})
	return router, sessions, events
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createTestSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/v1/sessions", `{"candidateName":"Ada Lovelace"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("empty sessionId")
	}
	return resp.SessionID
}

func TestCreateSession(t *testing.T) {
	router, sessions, _ := newTestServer(t)
	id := createTestSession(t, router)

	s, _ := sessions.GetByID(context.Background(), id)
	if s == nil {
		t.Fatal("session not persisted")
	}
	if s.CandidateName != "Ada Lovelace" {
		t.Errorf("CandidateName = %q, want %q", s.CandidateName, "Ada Lovelace")
	}
}

func TestCreateSessionValidation(t *testing.T) {
	router, _, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{}`},
		{"blank name", `{"candidateName":"  "}`},
		{"invalid json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/v1/sessions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != "bad_request" {
				t.Errorf("error = %q, want bad_request", body.Error)
			}
		})
	}
}

func TestAppendEvent(t *testing.T) {
	router, _, events := newTestServer(t)
	id := createTestSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/events",
		`{"type":"PHONE_DETECTED","meta":{"confidence":0.8}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var stored eventdomain.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored.ID == "" {
		t.Error("stored event has no id")
	}
	if stored.Type != eventdomain.TypePhoneDetected {
		t.Errorf("type = %q, want PHONE_DETECTED", stored.Type)
	}
	if got, _ := events.ListBySession(context.Background(), id); len(got) != 1 {
		t.Errorf("persisted %d events, want 1", len(got))
	}
}

func TestAppendEventMissingType(t *testing.T) {
	router, _, _ := newTestServer(t)
	id := createTestSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/events", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAppendEventUnknownSession(t *testing.T) {
	router, _, _ := newTestServer(t)
	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/nope/events", `{"type":"NO_FACE"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestAppendEventToFinalizedSession(t *testing.T) {
	router, _, _ := newTestServer(t)
	id := createTestSession(t, router)
	doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/finalize", "")

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/events", `{"type":"NO_FACE"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "invalid_session" {
		t.Errorf("error = %q, want invalid_session", body.Error)
	}
}

func TestPushObservation(t *testing.T) {
	router, _, _ := newTestServer(t)
	id := createTestSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/observations",
		`{"frameWidth":640,"primaryFace":{"xMin":280,"yMin":100,"xMax":360,"yMax":300}}`)
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
}

func TestPushObservationToFinalizedSession(t *testing.T) {
	router, _, _ := newTestServer(t)
	id := createTestSession(t, router)
	doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/finalize", "")

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/observations", `{"frameWidth":640}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestFinalizeSession(t *testing.T) {
	router, sessions, _ := newTestServer(t)
	id := createTestSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/finalize",
		`{"recordingUrl":"https://store.example/rec.webm"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	s, _ := sessions.GetByID(context.Background(), id)
	if s.EndedAt == nil {
		t.Fatal("session not finalized")
	}
	if s.RecordingURL != "https://store.example/rec.webm" {
		t.Errorf("RecordingURL = %q", s.RecordingURL)
	}
}

func TestFinalizeSessionIdempotent(t *testing.T) {
	router, _, _ := newTestServer(t)
	id := createTestSession(t, router)

	first := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/finalize", "")
	second := doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/finalize", "")
	if second.Code != http.StatusOK {
		t.Fatalf("repeat finalize status = %d: %s", second.Code, second.Body.String())
	}

	var a, b struct {
		EndedAt time.Time `json:"endTime"`
	}
	json.Unmarshal(first.Body.Bytes(), &a)
	json.Unmarshal(second.Body.Bytes(), &b)
	if !b.EndedAt.Equal(a.EndedAt) {
		t.Errorf("repeat finalize end time %v, want original %v", b.EndedAt, a.EndedAt)
	}
}

func TestFinalizeUnknownSession(t *testing.T) {
	router, _, _ := newTestServer(t)
	rec := doJSON(t, router, http.MethodPost, "/v1/sessions/nope/finalize", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGenerateReport(t *testing.T) {
	router, _, _ := newTestServer(t)
	id := createTestSession(t, router)
	doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/events", `{"type":"NO_FACE"}`)
	doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/events", `{"type":"PHONE_DETECTED"}`)
	doJSON(t, router, http.MethodPost, "/v1/sessions/"+id+"/finalize", "")

	rec := doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "report_"+id+".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "=== Interview Summary ===") {
		t.Error("report missing summary header")
	}
	if !strings.Contains(body, "finalIntegrityScore,80") {
		t.Errorf("report missing expected score:\n%s", body)
	}
}

func TestGenerateReportUnknownSession(t *testing.T) {
	router, _, _ := newTestServer(t)
	rec := doJSON(t, router, http.MethodGet, "/v1/sessions/nope/report", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGenerateReportEmptyLog(t *testing.T) {
	router, _, _ := newTestServer(t)
	id := createTestSession(t, router)

	rec := doJSON(t, router, http.MethodGet, "/v1/sessions/"+id+"/report", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "no_events" {
		t.Errorf("error = %q, want no_events", body.Error)
	}
}

func TestLiveness(t *testing.T) {
	router, _, _ := newTestServer(t)
	rec := doJSON(t, router, http.MethodGet, "/v1/liveness", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
