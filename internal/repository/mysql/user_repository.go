package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(64) NOT NULL DEFAULT 'USER',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

const errDuplicateEntry = 1062

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		user.Username, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return 0, fmt.Errorf("insert user %q: %w", user.Username, repository.ErrUserExists)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE id = ?", id)
	u, found, err := scanUser(row)
	if err != nil {
		return nil, false, fmt.Errorf("find user by id: %w", err)
	}
	return u, found, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = ?", username)
	u, found, err := scanUser(row)
	if err != nil {
		return nil, false, fmt.Errorf("find user by username: %w", err)
	}
	return u, found, nil
}

func scanUser(row *sql.Row) (*domain.User, bool, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	u.Role = domain.Role(role)
	return &u, true, nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}
