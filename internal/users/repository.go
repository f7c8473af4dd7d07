// Package users はユーザー資格情報の永続化（users テーブル）を担当します。
// テーブルを書き換えるのはこのパッケージだけです。
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateUsername はユーザー名が既に登録されている場合に返されます。
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrNotFound はユーザーが存在しない場合に返されます。
	ErrNotFound = errors.New("user not found")
)

// User は users テーブルの1行です。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// DBTX は *sql.DB と *sql.Tx の共通部分です。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository は users テーブルへのアクセスを提供します。
type Repository struct {
	db  DBTX
	now func() time.Time
}

// NewRepository はリポジトリを生成します。
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create はユーザーを追加します。ユーザー名が重複している場合は ErrDuplicateUsername を返し、既存行は変更しません。
func (r *Repository) Create(ctx context.Context, username, passwordHash string) (*User, error) {
	query :=
		`INSERT INTO users (username, password_hash, created_at)
		 VALUES (?, ?, ?)`

	createdAt := r.now().UTC()
	res, err := r.db.ExecContext(ctx, query, username, passwordHash, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: createdAt}, nil
}

// GetByUsername はユーザー名で検索します。存在しない場合は ErrNotFound を返します。
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query :=
		`SELECT id, username, password_hash, created_at FROM users
		 WHERE username = ?`

	u := &User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
