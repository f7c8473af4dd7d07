// Package storage はアップロードされた静的アセット（ロゴ画像）の保存先を抽象化します。
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrInvalidKey はキーが空、絶対パス、または上位ディレクトリを指す場合に返されます。
var ErrInvalidKey = errors.New("invalid storage key")

// Storage はキー（スラッシュ区切り）単位でバイト列を保存します。
type Storage interface {
	// Save はデータを保存し、保存先を表す文字列（ファイルパスや s3:// URL）を返します。
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// cleanKey はキーを正規化し、保存ルートの外を指すキーを拒否します。
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
