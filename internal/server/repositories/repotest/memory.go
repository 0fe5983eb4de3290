// Package repotest provides in-memory repositories for tests of the layers
// above the database.
package repotest

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

// Store holds the data of the in-memory repositories. Handles are ignored,
// so the same data is visible inside and outside transactions and nothing
// is rolled back.
type Store struct {
	mu     sync.Mutex
	Users  map[string]*models.User
	Tasks  map[string]*models.Task
	Tokens map[string][]string

	// injected failures
	ErrDeleteTasks error
	ErrTokens      error
	ErrUsers       error
}

func NewStore() *Store {
	return &Store{
		Users:  map[string]*models.User{},
		Tasks:  map[string]*models.Task{},
		Tokens: map[string][]string{},
	}
}

// Manager is a repomanager.RepositoryManager over a Store.
type Manager struct{ S *Store }

func NewManager() Manager { return Manager{S: NewStore()} }

func (m Manager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m Manager) Users(dbx.DBTX) users.Repository              { return usersRepo{m.S} }
func (m Manager) Tasks(dbx.DBTX) tasks.Repository              { return tasksRepo{m.S} }
func (m Manager) Tokens(dbx.DBTX) tokens.Repository            { return tokensRepo{m.S} }

type usersRepo struct{ s *Store }

func (f usersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.ErrUsers != nil {
		return nil, f.s.ErrUsers
	}
	for _, x := range f.s.Users {
		if x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.s.Users[c.ID] = &c
	out := c
	return &out, nil
}

func (f usersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.ErrUsers != nil {
		return nil, f.s.ErrUsers
	}
	u, ok := f.s.Users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (f usersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.ErrUsers != nil {
		return nil, f.s.ErrUsers
	}
	for _, u := range f.s.Users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f usersRepo) Update(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.Users[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	for _, x := range f.s.Users {
		if x.ID != u.ID && x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.UpdatedAt = time.Now()
	f.s.Users[c.ID] = &c
	out := c
	return &out, nil
}

func (f usersRepo) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.Users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.Users, id)
	return nil
}

type tasksRepo struct{ s *Store }

func (f tasksRepo) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c := *t
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.s.Tasks[c.ID] = &c
	out := c
	return &out, nil
}

func (f tasksRepo) ListByOwner(_ context.Context, ownerID string, q models.TaskQuery) ([]*models.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []*models.Task{}
	for _, t := range f.s.Tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if q.Completed != nil && t.Completed != *q.Completed {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}

func (f tasksRepo) GetByOwner(_ context.Context, ownerID, id string) (*models.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.Tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	out := *t
	return &out, nil
}

func (f tasksRepo) Update(_ context.Context, t *models.Task) (*models.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	old, ok := f.s.Tasks[t.ID]
	if !ok || old.OwnerID != t.OwnerID {
		return nil, common.ErrorNotFound
	}
	c := *t
	c.UpdatedAt = time.Now()
	f.s.Tasks[c.ID] = &c
	out := c
	return &out, nil
}

func (f tasksRepo) Delete(_ context.Context, ownerID, id string) (*models.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.Tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	delete(f.s.Tasks, id)
	return t, nil
}

func (f tasksRepo) DeleteAllByOwner(_ context.Context, ownerID string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.ErrDeleteTasks != nil {
		return 0, f.s.ErrDeleteTasks
	}
	var n int64
	for id, t := range f.s.Tasks {
		if t.OwnerID == ownerID {
			delete(f.s.Tasks, id)
			n++
		}
	}
	return n, nil
}

type tokensRepo struct{ s *Store }

func (f tokensRepo) Add(_ context.Context, userID, token string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.ErrTokens != nil {
		return f.s.ErrTokens
	}
	f.s.Tokens[userID] = append(f.s.Tokens[userID], token)
	return nil
}

func (f tokensRepo) Contains(_ context.Context, userID, token string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.ErrTokens != nil {
		return false, f.s.ErrTokens
	}
	for _, t := range f.s.Tokens[userID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (f tokensRepo) Remove(_ context.Context, userID, token string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	list := f.s.Tokens[userID]
	for i, t := range list {
		if t == token {
			f.s.Tokens[userID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return nil
}

func (f tokensRepo) RemoveAll(_ context.Context, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.ErrTokens != nil {
		return f.s.ErrTokens
	}
	delete(f.s.Tokens, userID)
	return nil
}

func (f tokensRepo) List(_ context.Context, userID string) ([]models.SessionToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.SessionToken
	for _, t := range f.s.Tokens[userID] {
		out = append(out, models.SessionToken{UserID: userID, Token: t})
	}
	return out, nil
}
