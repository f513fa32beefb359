package api

import (
	"context"

	"github.com/Unknownuser10132/shiptivitas-2/domain"
)

// Board abstracts the board service for handlers.
type Board interface {
	ListClients(ctx context.Context, userID string) ([]domain.Client, error)
	GetClient(ctx context.Context, userID string, id int) (domain.Client, error)
	CreateClient(ctx context.Context, userID, name, description string, status *domain.Status) (domain.Client, error)
	MoveClient(ctx context.Context, userID string, id int, status *domain.Status, priority *int) ([]domain.Client, error)
	DeleteClient(ctx context.Context, userID string, id int) ([]domain.Client, error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents reprocessing of replayed write requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}
