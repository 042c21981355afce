package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"finmec/internal/auth"
	"finmec/internal/db"
	"finmec/internal/models"
	"finmec/internal/store"

	"github.com/jmoiron/sqlx"
)

const (
	defaultWalletName        = "Principal"
	defaultWalletDescription = "Carteira principal criada automaticamente"
)

type UserService struct {
	txRunner          db.TxRunner
	users             UserStore
	wallets           WalletCreator
	provisionPassword string
	logger            *slog.Logger
}

type UserStore interface {
	Insert(ctx context.Context, tx store.Getter, input store.UserInput) (int64, error)
	GetByID(ctx context.Context, userID int64) (models.User, error)
	GetByRemoteJID(ctx context.Context, remoteJID string) (models.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	Activate(ctx context.Context, tx store.Execer, userID int64, username, passwordHash, domain *string) error
}

type WalletCreator interface {
	Create(ctx context.Context, tx store.Getter, userID int64, name, description string, isDefault bool) (int64, error)
}

func NewUserService(txRunner db.TxRunner, users UserStore, wallets WalletCreator, provisionPassword string, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		txRunner:          txRunner,
		users:             users,
		wallets:           wallets,
		provisionPassword: provisionPassword,
		logger:            logger,
	}
}

// Handle is the part of a WhatsApp JID before "@".
func Handle(remoteJID string) string {
	handle, _, _ := strings.Cut(remoteJID, "@")
	return handle
}

// GetOrCreate reports whether the user was created by this call. A new user
// starts inactive with a default wallet.
func (s *UserService) GetOrCreate(ctx context.Context, remoteJID string) (models.User, bool, error) {
	user, err := s.users.GetByRemoteJID(ctx, remoteJID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, err
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return models.User{}, false, err
	}
	masterToken, err := auth.GenerateAPIKey()
	if err != nil {
		return models.User{}, false, err
	}
	passwordHash, err := auth.HashPassword(s.provisionPassword)
	if err != nil {
		return models.User{}, false, err
	}
	handle := Handle(remoteJID)
	var created bool
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		created = false
		userID, err := s.users.Insert(ctx, tx, store.UserInput{
			RemoteJID:    remoteJID,
			Name:         handle,
			Phone:        handle,
			Username:     remoteJID,
			PasswordHash: passwordHash,
			APIKey:       apiKey,
			MasterToken:  masterToken,
		})
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := s.wallets.Create(ctx, tx, userID, defaultWalletName, defaultWalletDescription, true); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return models.User{}, false, err
	}
	user, err = s.users.GetByRemoteJID(ctx, remoteJID)
	if err != nil {
		return models.User{}, false, err
	}
	if created {
		s.logger.Info("user provisioned", slog.Int64("user_id", user.ID))
	}
	return user, created, nil
}

type ActivateInput struct {
	Username string
	Password string
	Domain   string
}

// Activate is idempotent. Empty fields keep the stored credentials.
func (s *UserService) Activate(ctx context.Context, userID int64, in ActivateInput) (models.User, error) {
	var username, passwordHash, domain *string
	if v := strings.TrimSpace(in.Username); v != "" {
		username = &v
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return models.User{}, err
		}
		passwordHash = &hash
	}
	if v := strings.TrimSpace(in.Domain); v != "" {
		domain = &v
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.users.Activate(ctx, tx, userID, username, passwordHash, domain)
	})
	if err != nil {
		return models.User{}, err
	}
	return s.ByID(ctx, userID)
}

func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, password) {
		return models.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return models.User{}, ErrUserInactive
	}
	return user, nil
}

func (s *UserService) ByID(ctx context.Context, userID int64) (models.User, error) {
	return s.lookup(s.users.GetByID(ctx, userID))
}

func (s *UserService) ByAPIKey(ctx context.Context, apiKey string) (models.User, error) {
	return s.lookup(s.users.GetByAPIKey(ctx, apiKey))
}

func (s *UserService) lookup(user models.User, err error) (models.User, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
