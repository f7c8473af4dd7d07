package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/curriculum-forge/internal/users"
)

var (
	// ErrInvalidCredentials はユーザーが存在しない場合とパスワード不一致の場合の両方で返されます。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateUsername は登録済みのユーザー名で登録しようとした場合に返されます。
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrMissingCredentials はユーザー名またはパスワードが空の場合に返されます。
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrUnauthorized は保護されたルートにログインなしでアクセスした場合のエラーです。
	ErrUnauthorized = errors.New("unauthorized")
)

// dummyHash は存在しないユーザーに対しても bcrypt 検証を1回行うためのハッシュです。
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("curriculum-forge-dummy-password"), bcrypt.DefaultCost)

// UserStore は認証サービスが必要とする資格情報ストアです。
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*users.User, error)
	GetByUsername(ctx context.Context, username string) (*users.User, error)
}

// Service はユーザー登録と認証を行います。
type Service struct {
	users UserStore
	cost  int
}

// NewService は認証サービスを作成します。
func NewService(store UserStore) *Service {
	return &Service{users: store, cost: bcrypt.DefaultCost}
}

// Register はユーザーを登録します。自動ログインはしません。
func (s *Service) Register(ctx context.Context, username, password string) (*users.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, users.ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Authenticate はユーザー名とパスワードを検証します。
// 失敗時はユーザーの有無にかかわらず ErrInvalidCredentials を返します。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*users.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
