package tasks

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

var cols = []string{"id", "owner_id", "description", "completed", "created_at", "updated_at"}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+tasks\s*\(id,\s*owner_id,\s*description,\s*completed\).*RETURNING\s+created_at,\s*updated_at\s*$`).
		WithArgs("t1", "u1", "buy milk", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	got, err := repo.Create(context.Background(), &models.Task{ID: "t1", OwnerID: "u1", Description: "buy milk"})
	require.NoError(t, err)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO tasks`).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Task{ID: "t1", OwnerID: "u1", Description: "x"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*fk violation`, err.Error())
}

func TestListByOwner_QueryShapes(t *testing.T) {
	yes := true
	now := time.Now()

	tests := []struct {
		name  string
		q     models.TaskQuery
		query string
		args  []driver.Value
	}{
		{
			name:  "defaults",
			q:     models.TaskQuery{},
			query: `WHERE owner_id = $1 ORDER BY created_at ASC, id ASC`,
			args:  []driver.Value{"u1"},
		},
		{
			name:  "completed filter sorted desc with paging",
			q:     models.TaskQuery{Completed: &yes, SortField: models.TaskSortUpdatedAt, SortDesc: true, Limit: 10, Skip: 20},
			query: `WHERE owner_id = $1 AND completed = $2 ORDER BY updated_at DESC, id ASC LIMIT $3 OFFSET $4`,
			args:  []driver.Value{"u1", true, 10, 20},
		},
		{
			name:  "unknown sort field falls back",
			q:     models.TaskQuery{SortField: "owner_id; DROP TABLE tasks", Skip: 5},
			query: `WHERE owner_id = $1 ORDER BY created_at ASC, id ASC OFFSET $2`,
			args:  []driver.Value{"u1", 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectQuery(regexp.QuoteMeta(tt.query) + `$`).
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows(cols).
					AddRow("t1", "u1", "a", true, now, now).
					AddRow("t2", "u1", "b", true, now, now))

			got, err := repo.ListByOwner(context.Background(), "u1", tt.q)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "t1", got[0].ID)
			assert.Equal(t, "u1", got[1].OwnerID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListByOwner_EmptyIsNotNil(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM tasks`).WithArgs("u1").WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.ListByOwner(context.Background(), "u1", models.TaskQuery{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByOwner_RowError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM tasks`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("t1", "u1", "a", false, now, now).RowError(0, errors.New("broken")))

	_, err := repo.ListByOwner(context.Background(), "u1", models.TaskQuery{})
	require.Error(t, err)
}

func TestGetByOwner(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s*$`

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now()
		mock.ExpectQuery(q).WithArgs("t1", "u1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("t1", "u1", "buy milk", false, now, now))

		got, err := repo.GetByOwner(context.Background(), "u1", "t1")
		require.NoError(t, err)
		assert.Equal(t, "buy milk", got.Description)
	})

	t.Run("other owner looks missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("t1", "u2").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByOwner(context.Background(), "u2", "t1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestUpdate(t *testing.T) {
	q := `(?s)^UPDATE\s+tasks\s+SET\s+description\s*=\s*\$3,\s*completed\s*=\s*\$4.*WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s+RETURNING\s+updated_at\s*$`
	task := &models.Task{ID: "t1", OwnerID: "u1", Description: "d", Completed: true}

	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now()
		mock.ExpectQuery(q).WithArgs("t1", "u1", "d", true).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		got, err := repo.Update(context.Background(), task)
		require.NoError(t, err)
		assert.Equal(t, now, got.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(context.Background(), task)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDelete(t *testing.T) {
	q := `(?s)^DELETE\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s+RETURNING\s+id,`

	t.Run("returns deleted row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now()
		mock.ExpectQuery(q).WithArgs("t1", "u1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow("t1", "u1", "x", false, now, now))

		got, err := repo.Delete(context.Background(), "u1", "t1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)

		_, err := repo.Delete(context.Background(), "u1", "t1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDeleteAllByOwner(t *testing.T) {
	q := `(?s)^DELETE\s+FROM\s+tasks\s+WHERE\s+owner_id\s*=\s*\$1\s*$`

	t.Run("counts rows", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.DeleteAllByOwner(context.Background(), "u1")
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})

	t.Run("zero tasks is fine", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))

		n, err := repo.DeleteAllByOwner(context.Background(), "u1")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("down"))

		_, err := repo.DeleteAllByOwner(context.Background(), "u1")
		require.Error(t, err)
	})
}

func TestIsSortable(t *testing.T) {
	assert.True(t, IsSortable("createdAt"))
	assert.True(t, IsSortable("completed"))
	assert.False(t, IsSortable("owner"))
}
