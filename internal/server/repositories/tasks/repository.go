package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository persists tasks. Every read and write that names a task also
// names its owner, so a task of another user behaves exactly like a missing
// one (common.ErrorNotFound).
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID string, q models.TaskQuery) ([]*models.Task, error)
	GetByOwner(ctx context.Context, ownerID, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) (*models.Task, error)
	DeleteAllByOwner(ctx context.Context, ownerID string) (int64, error)
}
