package mocks

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/phrazzld/todo-api/internal/store"
)

// TxRunner implements store.TxRunner without a database. The function runs
// with a nil transaction; stores from this package accept that in WithTx.
type TxRunner struct {
	// RunInTxFn overrides the default behavior when set
	RunInTxFn func(ctx context.Context, fn store.TxFn) error

	calls atomic.Int64
}

var _ store.TxRunner = (*TxRunner)(nil)

// NewTxRunner returns a runner that calls fn directly.
func NewTxRunner() *TxRunner {
	return &TxRunner{}
}

// RunInTx implements store.TxRunner
func (r *TxRunner) RunInTx(ctx context.Context, fn store.TxFn) error {
	r.calls.Add(1)
	if r.RunInTxFn != nil {
		return r.RunInTxFn(ctx, fn)
	}
	return fn(ctx, (*sql.Tx)(nil))
}

// Calls returns the number of RunInTx invocations.
func (r *TxRunner) Calls() int {
	return int(r.calls.Load())
}
