package usage

import (
	"context"

	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

// Store persists daily buckets.
type Store interface {
	// InTx runs fn inside one transaction. A non-nil error from fn rolls back.
	InTx(ctx context.Context, fn func(tx StoreTx) error) error
	ListByDevice(ctx context.Context, deviceID int32, r timeutil.DateRange) ([]Bucket, error)
	ListAll(ctx context.Context, r timeutil.DateRange, limit int32) ([]Bucket, error)
}

// StoreTx is the transactional view used by the sync paths.
type StoreTx interface {
	// Lock serializes writers of the same key until the transaction ends.
	Lock(ctx context.Context, key Key) error
	// Get returns nil when the bucket does not exist.
	Get(ctx context.Context, key Key) (*Bucket, error)
	Save(ctx context.Context, b Bucket) (Bucket, error)
}
