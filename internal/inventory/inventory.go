// Package inventory owns the stock ledger: the append-only record of every
// stock change, and the manual adjustment path that writes to it.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
)

// LogEntry is one immutable ledger row. PreviousStock + Change == NewStock.
type LogEntry struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	Change        int64
	PreviousStock int64
	NewStock      int64
	Reason        string
	ActorID       string
	CreatedAt     time.Time
}

// Tx is the set of reads and writes available inside a serialised stock
// transaction. GetProduct claims the product for the rest of the transaction;
// a concurrent writer to the same product makes the commit fail and the whole
// body is rerun.
type Tx interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int64) error
	AppendLog(ctx context.Context, e *LogEntry) error
	SumLogs(ctx context.Context, productID uuid.UUID) (int64, error)
}

// TxRunner executes fn atomically, retrying it from scratch on write
// conflicts. fn must not have effects outside tx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
