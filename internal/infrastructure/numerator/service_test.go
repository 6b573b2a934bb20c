package numerator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "cashpoint/internal/core/numerator"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // Simulates DB sequence value
	lastIncr     int64 // Track last increment passed
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Strict passes (key); cached passes (key, increment).
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.lastIncr = increment

	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("TEST")
	year := time.Now().Year()

	// 1. First call
	num, err := svc.GetNextNumber(ctx, cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fmt.Sprintf("TEST-%d-00001", year); num != want {
		t.Errorf("expected %s, got %s", want, num)
	}

	// 2. Second call
	num, err = svc.GetNextNumber(ctx, cfg, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fmt.Sprintf("TEST-%d-00002", year); num != want {
		t.Errorf("expected %s, got %s", want, num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("RCP")
	year := time.Now().Year()

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	// First call triggers a DB fetch allocating 1..10
	num, err := svc.GetNextNumber(ctx, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fmt.Sprintf("RCP-%d-00001", year); num != want {
		t.Errorf("expected %s, got %s", want, num)
	}
	if q.lastIncr != 10 {
		t.Errorf("expected range allocation of 10, got %d", q.lastIncr)
	}

	// The rest of the range is served from memory
	for i := 2; i <= 10; i++ {
		num, err = svc.GetNextNumber(ctx, cfg, opts, time.Now())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := fmt.Sprintf("RCP-%d-%05d", year, i); num != want {
			t.Errorf("expected %s, got %s", want, num)
		}
	}
	if q.currentValue != 10 {
		t.Errorf("expected a single DB allocation, sequence at %d", q.currentValue)
	}

	// Range exhausted, next call allocates 11..20
	num, err = svc.GetNextNumber(ctx, cfg, opts, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fmt.Sprintf("RCP-%d-00011", year); num != want {
		t.Errorf("expected %s, got %s", want, num)
	}
}

func TestGetNextNumber_KeysByResetPeriod(t *testing.T) {
	svc := New(&mockQuerier{})
	period := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		reset string
		want  string
	}{
		{"year", "RCP_2026"},
		{"month", "RCP_2026_08"},
		{"never", "RCP"},
	}
	for _, tc := range cases {
		cfg := corenumerator.Config{Prefix: "RCP", ResetPeriod: tc.reset}
		if got := svc.buildKey(cfg, period); got != tc.want {
			t.Errorf("reset %q: expected key %s, got %s", tc.reset, tc.want, got)
		}
	}
}

func TestSetNextNumber_DropsCachedRange(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("RCP")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	if _, err := svc.GetNextNumber(ctx, cfg, opts, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetNextNumber(ctx, cfg, time.Now(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key := svc.buildKey(cfg, time.Now())
	svc.cacheMu.Lock()
	_, exists := svc.ranges[key]
	svc.cacheMu.Unlock()
	if exists {
		t.Error("expected cached range to be dropped after SetNextNumber")
	}
}
