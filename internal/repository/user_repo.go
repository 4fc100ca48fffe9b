package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memory-makers/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByFriendCode(ctx context.Context, code string) (domain.User, error)
	SetPartner(ctx context.Context, userID, partnerID string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (user_id, email, name, picture, friend_code, partner_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Picture,
		user.FriendCode,
		user.PartnerID,
		user.PasswordHash,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT user_id, email, name, picture, friend_code, partner_id, password_hash, created_at
		FROM users
		WHERE user_id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT user_id, email, name, picture, friend_code, partner_id, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByFriendCode(ctx context.Context, code string) (domain.User, error) {
	const query = `
		SELECT user_id, email, name, picture, friend_code, partner_id, password_hash, created_at
		FROM users
		WHERE friend_code = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, code))
}

func (r *PgUserRepository) SetPartner(ctx context.Context, userID, partnerID string) error {
	const query = `
		UPDATE users
		SET partner_id = $2
		WHERE user_id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID, partnerID)
	return err
}

func (r *PgUserRepository) scanOne(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Picture,
		&u.FriendCode,
		&u.PartnerID,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return u, err
}
