// Package tokens stores each user's token ledger: the session tokens that
// are currently accepted for that user. A signed token that is not in the
// ledger is treated as revoked.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	// Add appends token to the user's ledger.
	Add(ctx context.Context, userID, token string) error
	// Contains reports whether token is in the user's ledger.
	Contains(ctx context.Context, userID, token string) (bool, error)
	// Remove drops exactly one token. Removing an absent token is not an error.
	Remove(ctx context.Context, userID, token string) error
	// RemoveAll empties the user's ledger.
	RemoveAll(ctx context.Context, userID string) error
	// List returns the ledger, oldest first.
	List(ctx context.Context, userID string) ([]models.SessionToken, error)
}
