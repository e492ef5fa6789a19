package events

import (
	"encoding/json"
	"testing"
)

func TestHubPublishAndDrop(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	if h.Subscribers() != 2 {
		t.Fatalf("subscribers = %d", h.Subscribers())
	}

	h.Publish("x")
	if <-a != "x" || <-b != "x" {
		t.Fatal("both subscribers should get the event")
	}

	h.Unsubscribe(b)
	h.Unsubscribe(b)
	if _, ok := <-b; ok {
		t.Error("unsubscribed channel should be closed")
	}

	for i := 0; i < clientBuffer+5; i++ {
		h.Publish("fill")
	}
	if h.Dropped() != 5 {
		t.Errorf("dropped = %d, want 5", h.Dropped())
	}
}

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", JobCreated, "garmin", map[string]string{"jobId": "R1"})
	var e Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.Type != JobCreated || e.Version != 1 || e.Source != "garmin" || e.RequestID != "req-1" || e.At.IsZero() {
		t.Errorf("event = %+v", e)
	}
	if string(e.Data) != `{"jobId":"R1"}` {
		t.Errorf("data = %s", e.Data)
	}
}
