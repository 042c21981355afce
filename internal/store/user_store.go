package store

import (
	"context"

	"finmec/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

type UserInput struct {
	RemoteJID    string
	Name         string
	Phone        string
	Username     string
	PasswordHash string
	APIKey       string
	MasterToken  string
}

const userColumns = `id, remote_jid, name, email, phone, username, password_hash, api_key,
		       master_token, is_active, is_verified, domain, created_at, updated_at`

// Insert returns sql.ErrNoRows when another row already owns remote_jid.
func (s *UserStore) Insert(ctx context.Context, tx Getter, input UserInput) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO users (remote_jid, name, phone, username, password_hash, api_key, master_token, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		ON CONFLICT (remote_jid) DO NOTHING
		RETURNING id
	`, input.RemoteJID, input.Name, input.Phone, input.Username, input.PasswordHash, input.APIKey, input.MasterToken)
	return id, err
}

func (s *UserStore) GetByID(ctx context.Context, userID int64) (models.User, error) {
	return s.getOne(ctx, `WHERE id = $1`, userID)
}

func (s *UserStore) GetByRemoteJID(ctx context.Context, remoteJID string) (models.User, error) {
	return s.getOne(ctx, `WHERE remote_jid = $1`, remoteJID)
}

func (s *UserStore) GetByAPIKey(ctx context.Context, apiKey string) (models.User, error) {
	return s.getOne(ctx, `WHERE api_key = $1`, apiKey)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getOne(ctx, `WHERE username = $1`, username)
}

func (s *UserStore) getOne(ctx context.Context, where string, arg any) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users `+where, arg)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

// Activate marks the user active. Nil username or password hash keep the stored values.
func (s *UserStore) Activate(ctx context.Context, tx Execer, userID int64, username, passwordHash, domain *string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET is_active = TRUE,
		    username = COALESCE($1, username),
		    password_hash = COALESCE($2, password_hash),
		    domain = COALESCE($3, domain),
		    updated_at = NOW()
		WHERE id = $4
	`, username, passwordHash, domain, userID)
	return err
}
