package pdf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const metaFilename = "meta.json"

// ExportMeta は出力1件分の情報です。作業ディレクトリの meta.json と出力記録に使われます。
type ExportMeta struct {
	ExportID    string      `json:"exportId"`
	Institution string      `json:"institution"`
	Filename    string      `json:"filename"`
	Size        int64       `json:"size"`
	Pages       int         `json:"pages"`
	Paragraphs  int         `json:"paragraphs"`
	Logo        LogoOutcome `json:"logo"`
	CreatedAt   time.Time   `json:"createdAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

func writeMeta(ws workspace, meta *ExportMeta) error {
	if meta == nil {
		return fmt.Errorf("meta is nil")
	}
	if err := writeJSON(ws.metaPath(), meta); err != nil {
		return fmt.Errorf("failed to write meta: %w", err)
	}
	return nil
}

// LoadMeta は作業ディレクトリの meta.json を読み込みます。
func LoadMeta(dir string) (*ExportMeta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to read meta: %w", err)
	}
	var meta ExportMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta: %w", err)
	}
	return &meta, nil
}
