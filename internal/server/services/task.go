package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/google/uuid"
)

// TaskInput is the payload of a create request. Unknown keys are ignored and
// the owner always comes from the session.
type TaskInput struct {
	Description string `json:"description" validate:"required"`
	Completed   bool   `json:"completed"`
}

// TaskService scopes every operation to one owner. Tasks of other users
// are reported as common.ErrorNotFound.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *TaskService {
	return &TaskService{db: db, repomanager: m, logger: l.With("module", "tasks")}
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (*models.Task, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	task, err := s.repomanager.Tasks(s.db).Create(ctx, &models.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Description: in.Description,
		Completed:   in.Completed,
	})
	if err != nil {
		return nil, internalError("create task", err)
	}

	s.logger.Debug(ctx, "task created", "task_id", task.ID, "owner", ownerID)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, q models.TaskQuery) ([]*models.Task, error) {
	if q.SortField != "" && !tasks.IsSortable(q.SortField) {
		return nil, fieldError("sortBy", "unknown sort field")
	}
	if q.Limit < 0 {
		return nil, fieldError("limit", "must be a positive number")
	}
	if q.Skip < 0 {
		return nil, fieldError("skip", "must be a positive number")
	}

	list, err := s.repomanager.Tasks(s.db).ListByOwner(ctx, ownerID, q)
	if err != nil {
		return nil, internalError("list tasks", err)
	}
	return list, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	task, err := s.repomanager.Tasks(s.db).GetByOwner(ctx, ownerID, id)
	if err != nil {
		return nil, s.lookupError("get task", err)
	}
	return task, nil
}

// Update applies a partial update limited to description and completed.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, fields map[string]json.RawMessage) (*models.Task, error) {
	if err := checkUpdateKeys(fields, "description", "completed"); err != nil {
		return nil, err
	}

	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if _, ok := fields["description"]; ok {
		if err := decodeField(fields, "description", &task.Description); err != nil {
			return nil, err
		}
		task.Description = strings.TrimSpace(task.Description)
		if err := checkField("description", task.Description, "required"); err != nil {
			return nil, err
		}
	}

	if _, ok := fields["completed"]; ok {
		if err := decodeField(fields, "completed", &task.Completed); err != nil {
			return nil, err
		}
	}

	updated, err := s.repomanager.Tasks(s.db).Update(ctx, task)
	if err != nil {
		return nil, s.lookupError("update task", err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	task, err := s.repomanager.Tasks(s.db).Delete(ctx, ownerID, id)
	if err != nil {
		return nil, s.lookupError("delete task", err)
	}
	return task, nil
}

func (s *TaskService) lookupError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return internalError(op, err)
}
