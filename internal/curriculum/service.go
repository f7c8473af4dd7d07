package curriculum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/sessioncache"
)

// ProviderError は生成APIの呼び出し失敗です（接続失敗、認証失敗、空応答、タイムアウト、ブレーカー開放）。
type ProviderError struct {
	Timeout bool
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("generation provider timed out: %v", e.Err)
	}
	return fmt.Sprintf("generation provider failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Result は生成結果です。
type Result struct {
	Text    string
	Outline Outline
}

// Service は生成APIを呼び出し、成功した結果をセッションのスロットへ保存します。
type Service struct {
	provider Provider
	cache    sessioncache.Store
	timeout  time.Duration
	logger   logrus.FieldLogger
}

// NewService は Service を作成します。
func NewService(provider Provider, cache sessioncache.Store, timeout time.Duration, logger logrus.FieldLogger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		timeout:  timeout,
		logger:   logger,
	}
}

// Generate は生成APIを1回だけ呼び出します。失敗時はスロットを書き換えません。
func (s *Service) Generate(ctx context.Context, slot string, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	text, err := s.provider.Complete(ctx, BuildPrompt(req))
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		return nil, &ProviderError{Timeout: timeout, Err: err}
	}

	if err := s.cache.Put(ctx, slot, text); err != nil {
		return nil, fmt.Errorf("failed to cache curriculum: %w", err)
	}

	outline := ParseOutline(text)
	s.logger.WithFields(logrus.Fields{
		"semesters_requested": req.NumSemesters,
		"semesters":           outline.Semesters,
		"weeks":               outline.Weeks,
		"took_ms":             time.Since(started).Milliseconds(),
	}).Info("curriculum generated")

	return &Result{Text: text, Outline: outline}, nil
}
