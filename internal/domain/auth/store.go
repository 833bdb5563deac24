package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Credential struct {
	ID           string
	Username     string
	FullName     string
	Role         Role
	PasswordHash string
	IsActive     bool
}

func (s *Store) FindByUsername(ctx context.Context, username string) (Credential, error) {
	return s.findOne(ctx, "username = $1", username)
}

func (s *Store) FindByID(ctx context.Context, id string) (Credential, error) {
	return s.findOne(ctx, "id = $1", id)
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (Credential, error) {
	var out Credential
	var role string
	err := s.DB.QueryRow(ctx, `
    SELECT id, username, full_name, role, password_hash, is_active
    FROM users
    WHERE `+where, arg).Scan(&out.ID, &out.Username, &out.FullName, &role, &out.PasswordHash, &out.IsActive)
	if err != nil {
		return Credential{}, err
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return Credential{}, err
	}
	out.Role = parsed
	return out, nil
}
