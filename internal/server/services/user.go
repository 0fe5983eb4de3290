package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Notifier delivers account emails. Implementations must not block.
type Notifier interface {
	SendWelcome(email, name string)
	SendGoodbye(email, name string)
}

// ObjectRemover deletes a stored object by key.
type ObjectRemover interface {
	RemoveObject(ctx context.Context, key string) error
}

// RegisterInput is the payload of a sign-up request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=7,nopassword"`
	Age      int    `json:"age" validate:"gte=0"`
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	bcryptCost  int
	notifier    Notifier
	objects     ObjectRemover
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, n Notifier, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		bcryptCost:  cfg.BcryptCost,
		notifier:    n,
		logger:      l.With("module", "users"),
	}
}

// SetObjectRemover sets where avatars of deleted accounts are removed from.
func (s *UserService) SetObjectRemover(r ObjectRemover) {
	s.objects = r
}

// Register creates an account and signs it in with its first token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Password = strings.TrimSpace(in.Password)

	if err := validate.Struct(in); err != nil {
		return nil, "", toValidationError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", internalError("hash password", err)
	}

	var user *models.User
	var token string

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
			Age:          in.Age,
		})
		if err != nil {
			return err
		}

		token, err = s.issue(ctx, tx, user.ID)
		return err
	})

	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil, "", fieldError("email", "Email is already taken")
	}
	if err != nil {
		return nil, "", internalError("register", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	s.notifier.SendWelcome(user.Email, user.Name)

	return user, token, nil
}

// VerifyCredentials returns the user whose password matches. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorInvalidCredentials
	}
	if err != nil {
		return nil, internalError("find user", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, strings.TrimSpace(password))
	if err != nil {
		return nil, internalError("check password", err)
	}
	if !ok {
		return nil, common.ErrorInvalidCredentials
	}

	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// IssueToken signs a new session token for user and records it in the
// user's ledger.
func (s *UserService) IssueToken(ctx context.Context, user *models.User) (string, error) {
	token, err := s.issue(ctx, s.db, user.ID)
	if err != nil {
		return "", internalError("issue token", err)
	}
	return token, nil
}

func (s *UserService) issue(ctx context.Context, db dbx.DBTX, userID string) (string, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret)
	if err != nil {
		return "", err
	}

	if err := s.repomanager.Tokens(db).Add(ctx, userID, token); err != nil {
		return "", err
	}

	return token, nil
}

// Authenticate resolves a presented token to its user. Any failure to prove
// identity yields common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, internalError("find user", err)
	}

	ok, err := s.repomanager.Tokens(s.db).Contains(ctx, user.ID, token)
	if err != nil {
		return nil, internalError("check token", err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// Logout revokes token only. Other sessions of the user stay valid.
func (s *UserService) Logout(ctx context.Context, user *models.User, token string) error {
	if err := s.repomanager.Tokens(s.db).Remove(ctx, user.ID, token); err != nil {
		return internalError("revoke token", err)
	}
	return nil
}

// LogoutAll revokes every token of user.
func (s *UserService) LogoutAll(ctx context.Context, user *models.User) error {
	if err := s.repomanager.Tokens(s.db).RemoveAll(ctx, user.ID); err != nil {
		return internalError("revoke tokens", err)
	}
	return nil
}

// UpdateProfile applies a partial update. Keys outside name, email, password
// and age reject the whole update.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, fields map[string]json.RawMessage) (*models.User, error) {
	if err := checkUpdateKeys(fields, "name", "email", "password", "age"); err != nil {
		return nil, err
	}

	u := *user

	if _, ok := fields["name"]; ok {
		var name string
		if err := decodeField(fields, "name", &name); err != nil {
			return nil, err
		}
		u.Name = strings.TrimSpace(name)
		if err := checkField("name", u.Name, "required"); err != nil {
			return nil, err
		}
	}

	if _, ok := fields["email"]; ok {
		var email string
		if err := decodeField(fields, "email", &email); err != nil {
			return nil, err
		}
		u.Email = normalizeEmail(email)
		if err := checkField("email", u.Email, "required,email"); err != nil {
			return nil, err
		}
	}

	if _, ok := fields["age"]; ok {
		if err := decodeField(fields, "age", &u.Age); err != nil {
			return nil, err
		}
		if err := checkField("age", u.Age, "gte=0"); err != nil {
			return nil, err
		}
	}

	if _, ok := fields["password"]; ok {
		var password string
		if err := decodeField(fields, "password", &password); err != nil {
			return nil, err
		}
		password = strings.TrimSpace(password)
		if err := checkField("password", password, "required,min=7,"+tagNoPassword); err != nil {
			return nil, err
		}

		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, internalError("hash password", err)
		}
		u.PasswordHash = hash
	}

	updated, err := s.repomanager.Users(s.db).Update(ctx, &u)
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil, fieldError("email", "Email is already taken")
	}
	if err != nil {
		return nil, internalError("update user", err)
	}

	return updated, nil
}

// Delete removes the account together with its tasks and tokens in one
// transaction. Nothing is removed if any step fails. The goodbye email and
// avatar cleanup run after commit and never fail the call.
func (s *UserService) Delete(ctx context.Context, user *models.User) error {
	var removed int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		removed, err = s.repomanager.Tasks(tx).DeleteAllByOwner(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}

		if err := s.repomanager.Tokens(tx).RemoveAll(ctx, user.ID); err != nil {
			return fmt.Errorf("delete tokens: %w", err)
		}

		if err := s.repomanager.Users(tx).Delete(ctx, user.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		return nil
	})
	if err != nil {
		return internalError("delete account", err)
	}

	s.logger.Info(ctx, "user deleted", "user_id", user.ID, "tasks", removed)
	s.notifier.SendGoodbye(user.Email, user.Name)

	if user.AvatarKey != "" && s.objects != nil {
		key := user.AvatarKey
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.objects.RemoveObject(ctx, key); err != nil {
				s.logger.Warn(ctx, "avatar cleanup failed", "key", key, "error", err)
			}
		}()
	}

	return nil
}
