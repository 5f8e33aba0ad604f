package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
)

func TestAcquireRelease(t *testing.T) {
	l := NewVendorLimiter(1)
	ctx := context.Background()

	if err := l.Acquire(ctx, domain.VendorSync); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	// Second acquire must block until the slot is released.
	done := make(chan struct{})
	go func() {
		if err := l.Acquire(ctx, domain.VendorSync); err != nil {
			t.Error(err)
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second acquire should block while the slot is held")
	case <-time.After(50 * time.Millisecond):
	}

	l.Release(domain.VendorSync)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire did not proceed after release")
	}
}

func TestDistinctVendorsDoNotBlockEachOther(t *testing.T) {
	l := NewVendorLimiter(1)
	ctx := context.Background()

	if err := l.Acquire(ctx, domain.VendorSync); err != nil {
		t.Fatal(err)
	}

	// The async vendor's pool is independent.
	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := l.Acquire(ctxTimeout, domain.VendorAsync); err != nil {
		t.Fatalf("distinct vendor blocked: %v", err)
	}
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	l := NewVendorLimiter(1)
	ctx := context.Background()

	if err := l.Acquire(ctx, domain.VendorSync); err != nil {
		t.Fatal(err)
	}

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(cancelCtx, domain.VendorSync)
	if err == nil {
		t.Fatal("expected context error while pool is exhausted")
	}
}

func TestSetLimitOverridesDefault(t *testing.T) {
	l := NewVendorLimiter(1)
	l.SetLimit(domain.VendorSync, 2)
	ctx := context.Background()

	if err := l.Acquire(ctx, domain.VendorSync); err != nil {
		t.Fatal(err)
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := l.Acquire(ctxTimeout, domain.VendorSync); err != nil {
		t.Fatalf("second slot should be available: %v", err)
	}
}
