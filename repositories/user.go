//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"task-portal/domain/chat"
	"task-portal/errors"
)

type IUserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (chat.User, error)
	GetByEmail(ctx context.Context, email string) (chat.User, error)
	GetByID(ctx context.Context, id int64) (chat.User, error)
	ListOthers(ctx context.Context, userID int64) ([]chat.User, error)
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return UserRepository{db: db}
}

// Create persists a new user. The email is unique, a duplicate yields
// ErrUserAlreadyExists rather than a raw constraint error.
func (u UserRepository) Create(ctx context.Context, name, email, passwordHash string) (chat.User, error) {
	var exists int
	err := u.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return chat.User{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if exists > 0 {
		return chat.User{}, errors.ErrUserAlreadyExists
	}

	const q = `
INSERT INTO users (name, email, password_hash)
VALUES (?, ?, ?)
RETURNING id, name, email, password_hash, created_at;
`
	var user chat.User
	err = u.db.QueryRowContext(ctx, q, name, email, passwordHash).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return chat.User{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return user, nil
}

func (u UserRepository) GetByEmail(ctx context.Context, email string) (chat.User, error) {
	const q = `SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?;`
	return u.scanOne(u.db.QueryRowContext(ctx, q, email))
}

func (u UserRepository) GetByID(ctx context.Context, id int64) (chat.User, error) {
	const q = `SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?;`
	return u.scanOne(u.db.QueryRowContext(ctx, q, id))
}

// ListOthers returns every user except the caller, for the chat sidebar.
func (u UserRepository) ListOthers(ctx context.Context, userID int64) ([]chat.User, error) {
	const q = `SELECT id, name, email, password_hash, created_at FROM users WHERE id != ? ORDER BY name ASC;`
	rows, err := u.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer rows.Close()

	var users []chat.User
	for rows.Next() {
		var user chat.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return users, nil
}

func (u UserRepository) scanOne(row *sql.Row) (chat.User, error) {
	var user chat.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return chat.User{}, errors.ErrNotFound
	}
	if err != nil {
		return chat.User{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return user, nil
}
