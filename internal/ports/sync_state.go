package ports

import "context"

// Keys recorded by the sync orchestrator after each completed cycle.
const (
	StateLastSyncAt        = "last_sync_at"
	StateLastSyncIssues    = "last_sync_issues"
	StateLastSyncImages    = "last_sync_images"
	StateLastSyncResponses = "last_sync_responses"
)

// SyncState is a small key-value store for cycle bookkeeping. Adapters may be
// backed by SQLite or any other store.
type SyncState interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
}
