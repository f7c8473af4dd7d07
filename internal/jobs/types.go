// Package jobs は出力作業ディレクトリの遅延削除（asynq）と出力記録（Redis）を扱います。
package jobs

import (
	"time"

	"github.com/yourusername/curriculum-forge/internal/pdf"
)

// Status は出力記録の状態を表します。
type Status string

const (
	StatusReady  Status = "ready"
	StatusPurged Status = "purged"
)

// Record は1回の PDF 出力の記録です。Owner 以外には返しません。
type Record struct {
	ExportID    string          `json:"exportId"`
	Owner       string          `json:"-"`
	Status      Status          `json:"status"`
	Institution string          `json:"institution"`
	Filename    string          `json:"filename"`
	Size        int64           `json:"size"`
	Pages       int             `json:"pages"`
	Paragraphs  int             `json:"paragraphs"`
	Logo        pdf.LogoOutcome `json:"logo"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// storedRecord は Owner も含めて Redis に保存する形です。
type storedRecord struct {
	Record
	Owner string `json:"owner"`
}
