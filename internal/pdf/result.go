package pdf

import (
	"sync"
)

// DownloadFilename はダウンロード時のファイル名です。実ファイルは出力ごとに別ディレクトリへ置かれます。
const DownloadFilename = "generated_curriculum.pdf"

// Result は出力処理の成果を表します。
type Result struct {
	ExportID       string     `json:"exportId"`
	OutputPath     string     `json:"outputPath"`
	OutputFilename string     `json:"outputFilename"`
	OutputSize     int64      `json:"outputSize"`
	Meta           ExportMeta `json:"meta"`

	jobDir      string
	cleanupOnce sync.Once
	cleanupErr  error
}

// Cleanup は作業ディレクトリを削除します。
func (r *Result) Cleanup() error {
	if r == nil {
		return nil
	}
	r.cleanupOnce.Do(func() {
		r.cleanupErr = removeDir(r.jobDir)
	})
	return r.cleanupErr
}
