// Package ratelimit bounds the number of simultaneous outbound calls per
// vendor with counted slots, so a burst of dispatch messages for one vendor
// never starves the others.
package ratelimit

import (
	"context"
	"sync"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
)

// VendorLimiter is a named slot pool per vendor identifier. Acquire blocks
// until a slot frees; Release returns it. The bound is fixed per vendor at
// construction time.
type VendorLimiter struct {
	mu           sync.Mutex
	slots        map[domain.Vendor]chan struct{}
	defaultLimit int
}

// NewVendorLimiter creates a limiter that hands out defaultLimit concurrent
// slots per vendor. Slot pools are created lazily per vendor identifier,
// keeping the limiter open to vendor ids beyond the built-in two.
func NewVendorLimiter(defaultLimit int) *VendorLimiter {
	if defaultLimit <= 0 {
		defaultLimit = 1
	}
	return &VendorLimiter{
		slots:        make(map[domain.Vendor]chan struct{}),
		defaultLimit: defaultLimit,
	}
}

// SetLimit fixes a per-vendor bound, overriding the default. It must be
// called before any Acquire for that vendor.
func (l *VendorLimiter) SetLimit(vendor domain.Vendor, limit int) {
	if limit <= 0 {
		limit = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots[vendor] = make(chan struct{}, limit)
}

// Acquire blocks until a slot for the vendor is available or the context is
// cancelled.
func (l *VendorLimiter) Acquire(ctx context.Context, vendor domain.Vendor) error {
	select {
	case l.pool(vendor) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a previously acquired slot.
func (l *VendorLimiter) Release(vendor domain.Vendor) {
	select {
	case <-l.pool(vendor):
	default:
		// Release without a matching Acquire; nothing to return.
	}
}

func (l *VendorLimiter) pool(vendor domain.Vendor) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.slots[vendor]
	if !ok {
		p = make(chan struct{}, l.defaultLimit)
		l.slots[vendor] = p
	}
	return p
}
