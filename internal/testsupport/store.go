package testsupport

import (
	"context"
	"testing"

	"clearcart/internal/cart"
	"clearcart/internal/catalog"
	"clearcart/internal/config"
)

// MustOpenStore opens a cart.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *cart.Store {
	t.Helper()

	store, err := cart.Open(cfg)
	if err != nil {
		t.Fatalf("cart.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedCart adds the provided assets to the store, failing the test on error.
func SeedCart(t testing.TB, store *cart.Store, assets ...catalog.Asset) {
	t.Helper()

	if err := store.Add(context.Background(), assets...); err != nil {
		t.Fatalf("store.Add: %v", err)
	}
}
