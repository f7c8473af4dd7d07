package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/tiff"
)

// LogoStatus はロゴ画像の扱いの結果です。
type LogoStatus string

const (
	LogoNone     LogoStatus = "none"
	LogoEmbedded LogoStatus = "embedded"
	LogoSkipped  LogoStatus = "skipped"
)

// LogoOutcome はロゴを埋め込んだか、理由付きで省略したかを表します。
type LogoOutcome struct {
	Status   LogoStatus `json:"status"`
	Reason   string     `json:"reason,omitempty"`
	StoredAt string     `json:"storedAt,omitempty"`
	AssetKey string     `json:"assetKey,omitempty"`
}

var embeddableMIMEs = []string{"image/png", "image/jpeg", "image/tiff"}

// prepareLogo はロゴを作業ディレクトリへ保存し、静的アセットとして永続化し、埋め込み可能か判定します。
// 失敗しても出力は続行し、埋め込み用パスは空になります。
func (s *Service) prepareLogo(ctx context.Context, ws workspace, file *multipart.FileHeader) (string, LogoOutcome) {
	if file == nil || file.Size == 0 {
		return "", LogoOutcome{Status: LogoNone}
	}
	if file.Size > s.cfg.MaxLogoSize {
		return "", s.skipLogo(ws, "read", fmt.Errorf("logo exceeds %d bytes", s.cfg.MaxLogoSize))
	}

	data, err := readUpload(file, s.cfg.MaxLogoSize)
	if err != nil {
		return "", s.skipLogo(ws, "read", err)
	}
	if len(data) == 0 {
		return "", LogoOutcome{Status: LogoNone}
	}

	mtype := mimetype.Detect(data)
	name := sanitizeFilename(file.Filename)

	key := path.Join("logos", ws.exportID, name)
	storedAt, err := s.assets.Save(ctx, key, data, mtype.String())
	if err != nil {
		return "", s.skipLogo(ws, "persist", err)
	}

	if !mimetype.EqualsAny(mtype.String(), embeddableMIMEs...) {
		out := s.skipLogo(ws, "embed", fmt.Errorf("unsupported image type %s", mtype.String()))
		out.StoredAt, out.AssetKey = storedAt, key
		return "", out
	}

	// ヘッダーだけ正しい途中で切れた画像は pdfcpu が黙って落とすため、ここで全体をデコードする
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		out := s.skipLogo(ws, "decode", err)
		out.StoredAt, out.AssetKey = storedAt, key
		return "", out
	}

	// pdfcpu に渡す作業用コピーは検出した形式の拡張子に揃える
	localName := strings.TrimSuffix(name, filepath.Ext(name)) + mtype.Extension()
	localPath := filepath.Join(ws.inDir, localName)
	if err := os.WriteFile(localPath, data, 0o640); err != nil {
		out := s.skipLogo(ws, "stage", err)
		out.StoredAt, out.AssetKey = storedAt, key
		return "", out
	}

	return localPath, LogoOutcome{Status: LogoEmbedded, StoredAt: storedAt, AssetKey: key}
}

func (s *Service) skipLogo(ws workspace, op string, err error) LogoOutcome {
	assetErr := &AssetError{Op: op, Err: err}
	s.logger.WithError(assetErr).WithField("export_id", ws.exportID).Warn("logo skipped")
	return LogoOutcome{Status: LogoSkipped, Reason: assetErr.Error()}
}

func readUpload(file *multipart.FileHeader, limit int64) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("logo exceeds %d bytes", limit)
	}
	return data, nil
}

// sanitizeFilename はパス要素を取り除き、英数字と . - _ 以外を _ に置き換えます。
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" || out == "_" {
		return "logo"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
