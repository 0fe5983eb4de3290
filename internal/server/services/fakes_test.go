package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repotest"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	mu      sync.Mutex
	welcome []string
	goodbye []string
}

func (n *recordingNotifier) SendWelcome(email, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome = append(n.welcome, email)
}

func (n *recordingNotifier) SendGoodbye(email, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.goodbye = append(n.goodbye, email)
}

type chanRemover struct{ keys chan string }

func (r chanRemover) RemoveObject(_ context.Context, key string) error {
	r.keys <- key
	return nil
}

var errStore = errors.New("store down")

func testConfig() *config.Config {
	return &config.Config{SecretKey: "test-secret", BcryptCost: bcrypt.MinCost}
}

// newUserFixture builds a UserService over in-memory repositories. sqlmock only serves the
// transactions; tests queue Begin/Commit/Rollback as needed.
func newUserFixture(t *testing.T) (*UserService, *repotest.Store, *recordingNotifier, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := repotest.NewStore()
	n := &recordingNotifier{}
	return NewUserService(db, repotest.Manager{S: store}, testConfig(), n, logging.Nop{}), store, n, mock
}
