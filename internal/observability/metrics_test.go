package observability

import (
	"sync"
	"testing"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordAction("claim", "OK")
		}()
	}
	wg.Wait()
	m.RecordAction("close", "ALREADY_IN_STATE")
	m.RecordFollowup("delete_channel", "failed")

	snap := m.Snapshot()
	if got := snap.Actions["claim|OK"]; got != 20 {
		t.Errorf("claim|OK = %d", got)
	}
	if got := snap.Actions["close|ALREADY_IN_STATE"]; got != 1 {
		t.Errorf("close|ALREADY_IN_STATE = %d", got)
	}
	if got := snap.Followups["delete_channel|failed"]; got != 1 {
		t.Errorf("followups = %d", got)
	}

	snap.Actions["claim|OK"] = 0
	if m.Snapshot().Actions["claim|OK"] != 20 {
		t.Error("snapshot aliases internal state")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordAction("claim", "OK")
	m.RecordFollowup("x", "ok")
	if len(m.Snapshot().Actions) != 0 {
		t.Error("nil metrics returned data")
	}
}
