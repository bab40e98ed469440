package application

import (
	"context"
	"errors"
)

var ErrCartNotConfigured = errors.New("cart ledger is not configured: wire a ledger before running cart consumers")

type cartContextKey struct{}

// ContextWithCart makes ledger available to everything running under ctx.
func ContextWithCart(ctx context.Context, ledger *Ledger) context.Context {
	return context.WithValue(ctx, cartContextKey{}, ledger)
}

// CartFromContext returns the ledger installed by ContextWithCart, or
// ErrCartNotConfigured when there is none.
func CartFromContext(ctx context.Context) (*Ledger, error) {
	if ctx == nil {
		return nil, ErrCartNotConfigured
	}

	ledger, ok := ctx.Value(cartContextKey{}).(*Ledger)
	if !ok || ledger == nil {
		return nil, ErrCartNotConfigured
	}

	return ledger, nil
}
