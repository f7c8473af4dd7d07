// Package pdf はカリキュラムを機関名・ロゴ付きの PDF として出力する機能を提供します。
package pdf

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/storage"
)

const (
	outputFilename   = "curriculum.pdf"
	defaultRetention = 10 * time.Minute
)

// Config は出力処理の設定です。
type Config struct {
	WorkDir     string
	MaxLogoSize int64
	Retention   time.Duration
}

// ExportRequest は出力1件分の入力です。Curriculum が空でもエラーにはなりません。
type ExportRequest struct {
	Institution string
	Curriculum  string
	Logo        *multipart.FileHeader
}

// Service は出力ごとに独立した作業ディレクトリで PDF を生成します。
type Service struct {
	cfg      Config
	assets   storage.Storage
	renderer Renderer
	layout   Layout
	purger   Purger
	logger   logrus.FieldLogger
	now      func() time.Time
}

// Option は Service の依存を差し替えます。
type Option func(*Service)

// WithRenderer はレンダラーを差し替えます。
func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithPurger は遅延削除の方法を差し替えます。
func WithPurger(p Purger) Option {
	return func(s *Service) { s.purger = p }
}

// WithLayout は配置ルールを差し替えます。
func WithLayout(l Layout) Option {
	return func(s *Service) { s.layout = l }
}

// NewService は Service を作成し、作業ディレクトリのルートを用意します。
func NewService(cfg Config, assets storage.Storage, logger logrus.FieldLogger, opts ...Option) (*Service, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work dir is required")
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}

	s := &Service{
		cfg:      cfg,
		assets:   assets,
		renderer: NewPDFCPURenderer(),
		layout:   DefaultLayout(),
		purger:   timerPurger{assets: assets},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Export は PDF を生成します。ロゴに関する失敗は LogoOutcome に記録して続行します。
func (s *Service) Export(ctx context.Context, req ExportRequest) (_ *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	institution := strings.TrimSpace(req.Institution)
	if institution == "" {
		return nil, newError("INVALID_INPUT", "institution_name を指定してください。", nil)
	}

	ws, err := s.createWorkspace()
	if err != nil {
		return nil, err
	}
	job := PurgeJob{ExportID: ws.exportID, Dir: ws.dir}
	defer func() {
		if err != nil {
			_ = PurgeWorkspace(context.WithoutCancel(ctx), s.assets, job)
		}
	}()

	logoPath, logo := s.prepareLogo(ctx, ws, req.Logo)
	if logo.AssetKey != "" {
		job.AssetKeys = append(job.AssetKeys, logo.AssetKey)
	}
	doc := BuildDocument(institution, req.Curriculum, logoPath)

	outputPath := filepath.Join(ws.outDir, outputFilename)
	pages := s.layout.Paginate(doc)
	if renderErr := s.renderer.Render(ctx, pages, outputPath); renderErr != nil {
		if !doc.HasImage() {
			return nil, newError("EXPORT_FAILED", "PDFの生成に失敗しました。", renderErr)
		}
		// 画像の読み込みで失敗した可能性があるため画像なしで作り直す
		logo = s.skipLogo(ws, "embed", renderErr)
		doc = doc.WithoutImage()
		pages = s.layout.Paginate(doc)
		if renderErr := s.renderer.Render(ctx, pages, outputPath); renderErr != nil {
			return nil, newError("EXPORT_FAILED", "PDFの生成に失敗しました。", renderErr)
		}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("出力ファイルの確認に失敗しました: %w", err)
	}

	now := s.now().UTC()
	meta := ExportMeta{
		ExportID:    ws.exportID,
		Institution: institution,
		Filename:    DownloadFilename,
		Size:        info.Size(),
		Pages:       len(pages),
		Paragraphs:  len(doc.Paragraphs()),
		Logo:        logo,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.Retention),
	}
	if err := writeMeta(ws, &meta); err != nil {
		return nil, err
	}

	if err := s.purger.SchedulePurge(ctx, job, s.cfg.Retention); err != nil {
		s.logger.WithError(err).WithField("export_id", ws.exportID).Warn("purge scheduling failed, falling back to timer")
		_ = timerPurger{assets: s.assets}.SchedulePurge(ctx, job, s.cfg.Retention)
	}

	s.logger.WithFields(logrus.Fields{
		"export_id":   ws.exportID,
		"pages":       meta.Pages,
		"paragraphs":  meta.Paragraphs,
		"logo_status": logo.Status,
		"size":        meta.Size,
	}).Info("pdf exported")

	return &Result{
		ExportID:       ws.exportID,
		OutputPath:     outputPath,
		OutputFilename: DownloadFilename,
		OutputSize:     info.Size(),
		Meta:           meta,
		jobDir:         ws.dir,
	}, nil
}
