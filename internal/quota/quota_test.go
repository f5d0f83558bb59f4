package quota

import (
	"context"
	"testing"
	"time"

	"bookherald/internal/config"
)

type memoryUsage struct {
	counts map[string]int
}

func newMemoryUsage() *memoryUsage {
	return &memoryUsage{counts: make(map[string]int)}
}

func (m *memoryUsage) Usage(_ context.Context, date, provider string) (int, error) {
	return m.counts[date+"/"+provider], nil
}

func (m *memoryUsage) IncrementUsage(_ context.Context, date, provider string) (int, error) {
	m.counts[date+"/"+provider]++
	return m.counts[date+"/"+provider], nil
}

func newTestGate(t *testing.T, store UsageStore, limit int) *Gate {
	t.Helper()
	cfg := config.Default()
	cfg.Quota.DailyLimit = limit
	gate, err := NewGate(store, &cfg)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	return gate
}

func TestGateAllowsUntilLimit(t *testing.T) {
	gate := newTestGate(t, newMemoryUsage(), 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		status, err := gate.Consume(ctx)
		if err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if !status.Allowed {
			t.Fatalf("request %d denied under limit", i+1)
		}
	}

	status, err := gate.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status.Allowed {
		t.Fatalf("check allowed at limit: %+v", status)
	}
	if status.Remaining() != 0 {
		t.Fatalf("remaining should be 0, got %d", status.Remaining())
	}
}

func TestConsumeAtLimitDoesNotIncrement(t *testing.T) {
	store := newMemoryUsage()
	gate := newTestGate(t, store, 1)
	ctx := context.Background()

	if _, err := gate.Consume(ctx); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	status, err := gate.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if status.Allowed {
		t.Fatal("consume allowed past limit")
	}
	if status.Current != 1 {
		t.Fatalf("denied consume still incremented: %d", status.Current)
	}
}

func TestGateRollsOverInConfiguredTimezone(t *testing.T) {
	store := newMemoryUsage()
	gate := newTestGate(t, store, 1)
	ctx := context.Background()

	// 2026-08-29 23:30 in Tokyo.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	gate.now = func() time.Time {
		return time.Date(2026, 8, 29, 23, 30, 0, 0, tokyo)
	}

	status, err := gate.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if status.Date != "2026-08-29" {
		t.Fatalf("wrong accounting day: %s", status.Date)
	}

	// One hour later it is the next Tokyo day and the budget is fresh.
	gate.now = func() time.Time {
		return time.Date(2026, 8, 30, 0, 30, 0, 0, tokyo)
	}
	status, err = gate.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !status.Allowed || status.Current != 0 || status.Date != "2026-08-30" {
		t.Fatalf("budget did not reset on rollover: %+v", status)
	}
}

func TestNewGateRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Quota.Timezone = "Mars/Olympus"
	if _, err := NewGate(newMemoryUsage(), &cfg); err == nil {
		t.Fatal("expected error for unknown timezone")
	}

	cfg = config.Default()
	cfg.Quota.DailyLimit = 0
	if _, err := NewGate(newMemoryUsage(), &cfg); err == nil {
		t.Fatal("expected error for zero limit")
	}
}
