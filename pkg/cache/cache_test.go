package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(100, 24*time.Hour)
	m.now = func() time.Time { return now }

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get on empty store: err = %v, want ErrMiss", err)
	}

	if err := m.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}

	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get = %q, %v; want v, nil", got, err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after expiry: err = %v, want ErrMiss", err)
	}
}

func TestMemory_Quota(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(2, 24*time.Hour)
	m.now = func() time.Time { return now }

	rem, err := m.Remaining(ctx, "q")
	if err != nil || rem != 2 {
		t.Errorf("Remaining = %d, %v; want 2, nil", rem, err)
	}

	if n, _ := m.Increment(ctx, "q"); n != 1 {
		t.Errorf("first Increment = %d, want 1", n)
	}
	if n, _ := m.Increment(ctx, "q"); n != 2 {
		t.Errorf("second Increment = %d, want 2", n)
	}

	if rem, _ := m.Remaining(ctx, "q"); rem != 0 {
		t.Errorf("Remaining after budget spent = %d, want 0", rem)
	}

	// A third call overspends; remaining clamps at zero.
	m.Increment(ctx, "q")
	if rem, _ := m.Remaining(ctx, "q"); rem != 0 {
		t.Errorf("Remaining = %d, want 0 (clamped)", rem)
	}

	// The counter resets once the window rolls over.
	now = now.Add(25 * time.Hour)
	if rem, _ := m.Remaining(ctx, "q"); rem != 2 {
		t.Errorf("Remaining after window rollover = %d, want 2", rem)
	}
}

func TestMemory_QuotaKeysIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(5, 24*time.Hour)

	m.Increment(ctx, "a")
	m.Increment(ctx, "a")

	if rem, _ := m.Remaining(ctx, "b"); rem != 5 {
		t.Errorf("Remaining(b) = %d, want untouched budget", rem)
	}
}
