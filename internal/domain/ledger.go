package domain

import "context"

// SnapshotReader gives read access to a consistent view of the ledger
type SnapshotReader interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}
