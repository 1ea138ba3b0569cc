package notify

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierDeliversSignedEvent(t *testing.T) {
	secret := "test_secret"

	var mu sync.Mutex
	var received []LeadEvent
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}

		ts, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
		if err != nil {
			t.Errorf("bad timestamp header: %v", err)
		}
		if err := ValidateSignature(secret, r.Header.Get(HeaderSignature), ts, body, DefaultReplayWindow); err != nil {
			t.Errorf("signature validation failed: %v", err)
		}
		if r.Header.Get(HeaderDeliveryID) == "" {
			t.Error("missing delivery id header")
		}

		var event LeadEvent
		if err := json.Unmarshal(body, &event); err != nil {
			t.Errorf("decode event: %v", err)
		}
		mu.Lock()
		received = append(received, event)
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer srv.Close()

	n := New(srv.URL, secret, testLogger())
	n.Dispatch(LeadEvent{
		Type:      EventLeadStageMoved,
		LeadID:    "01HX",
		OwnerID:   "user_1",
		Stage:     "qualified",
		PrevStage: "contacted",
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(received))
	}
	if received[0].Type != EventLeadStageMoved {
		t.Errorf("unexpected event type %q", received[0].Type)
	}
	if received[0].Timestamp == 0 {
		t.Error("expected dispatch to stamp the event")
	}
}

func TestNotifierRetriesOnServerError(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer srv.Close()

	n := New(srv.URL, "secret", testLogger())
	n.Dispatch(LeadEvent{Type: EventLeadCreated, LeadID: "01HX", OwnerID: "user_1"})

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("event was not retried to success")
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestNilNotifierDropsEvents(t *testing.T) {
	var n *Notifier
	// Must not panic.
	n.Dispatch(LeadEvent{Type: EventLeadDeleted, LeadID: "01HX"})
}

func TestNewWithoutURLReturnsNil(t *testing.T) {
	if n := New("", "secret", testLogger()); n != nil {
		t.Error("expected nil notifier when no URL is configured")
	}
}
