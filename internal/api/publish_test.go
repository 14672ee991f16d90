package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"styleassets/internal/events"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

type recordedEvent struct {
	subject string
	payload any
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{subject: subject, payload: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) recorded() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

func TestRegisterFontPublishesEvent(t *testing.T) {
	srv, mux := newTestServer(t)
	pub := &recordingPublisher{}
	srv.SetPublisher(pub)

	body := `{"name":"Fira Code","family":"Fira","category":"monospace"}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fonts", strings.NewReader(body))
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	got := pub.recorded()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].subject != events.SubjectFontRegistered {
		t.Fatalf("expected subject %q, got %q", events.SubjectFontRegistered, got[0].subject)
	}
	payload, ok := got[0].payload.(events.FontRegistered)
	if !ok {
		t.Fatalf("expected FontRegistered payload, got %T", got[0].payload)
	}
	if payload.ID != "fira_code" || payload.Category != "monospace" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Timestamp.IsZero() {
		t.Fatal("expected event timestamp to be set")
	}
}

func TestCreateSchemePublishesEvent(t *testing.T) {
	srv, mux := newTestServer(t)
	pub := &recordingPublisher{}
	srv.SetPublisher(pub)

	body := `{"name":"Night Mode","category":"modern","colors":{"primary":"#111111","background":"#000000"}}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/color-schemes", strings.NewReader(body))
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	got := pub.recorded()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].subject != events.SubjectSchemeCreated {
		t.Fatalf("expected subject %q, got %q", events.SubjectSchemeCreated, got[0].subject)
	}
	payload, ok := got[0].payload.(events.SchemeCreated)
	if !ok {
		t.Fatalf("expected SchemeCreated payload, got %T", got[0].payload)
	}
	if payload.ID != "night_mode" {
		t.Fatalf("expected id night_mode, got %q", payload.ID)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	srv, mux := newTestServer(t)
	pub := &recordingPublisher{err: context.DeadlineExceeded}
	srv.SetPublisher(pub)

	body := `{"name":"Fira Code","family":"Fira","category":"monospace"}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fonts", strings.NewReader(body))
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 despite publish failure, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSetPublisherNilFallsBackToNop(t *testing.T) {
	srv, mux := newTestServer(t)
	srv.SetPublisher(nil)

	body := `{"name":"Fira Code","family":"Fira","category":"monospace"}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/fonts", strings.NewReader(body))
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 with nop publisher, got %d: %s", rr.Code, rr.Body.String())
	}
}
