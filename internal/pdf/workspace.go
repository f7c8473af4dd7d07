package pdf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// workspace は1回の出力処理専用のディレクトリです（<WorkDir>/<exportId>/{in,out}）。
type workspace struct {
	exportID string
	dir      string
	inDir    string
	outDir   string
}

func (w workspace) metaPath() string {
	return filepath.Join(w.dir, metaFilename)
}

func (s *Service) createWorkspace() (workspace, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.cfg.WorkDir, id)
	ws := workspace{
		exportID: id,
		dir:      dir,
		inDir:    filepath.Join(dir, "in"),
		outDir:   filepath.Join(dir, "out"),
	}
	for _, d := range []string{ws.inDir, ws.outDir} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			_ = removeDir(dir)
			return workspace{}, fmt.Errorf("作業ディレクトリの作成に失敗しました: %w", err)
		}
	}
	return ws, nil
}

func removeDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

func writeJSON(path string, v any) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
