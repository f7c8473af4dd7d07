package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Local はローカルディレクトリ（STATIC_DIR）へ保存します。ディレクトリが無ければ作成します。
type Local struct {
	root string
}

// NewLocal は Local を作成します。
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Save は root/key へ書き込みます。
func (l *Local) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(l.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create asset dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}
	return dst, nil
}

// Delete は root/key を削除します。存在しない場合はエラーにしません。
// 空になった親ディレクトリ（logos/<exportId> など）も取り除きます。
func (l *Local) Delete(_ context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	dst := filepath.Join(l.root, filepath.FromSlash(cleaned))
	err = os.Remove(dst)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if dir := filepath.Dir(dst); dir != filepath.Clean(l.root) {
		_ = os.Remove(dir)
	}
	return nil
}
