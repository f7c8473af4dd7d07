package pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/curriculum-forge/internal/storage"
)

// PurgeJob は1回の出力で残った成果物です。作業ディレクトリと永続化したロゴのキーを持ちます。
type PurgeJob struct {
	ExportID  string   `json:"exportId"`
	Dir       string   `json:"dir"`
	AssetKeys []string `json:"assetKeys,omitempty"`
}

// Purger は成果物の遅延削除を予約します。
type Purger interface {
	SchedulePurge(ctx context.Context, job PurgeJob, after time.Duration) error
}

// PurgeWorkspace は作業ディレクトリと静的アセットを削除します。
// 片方が失敗しても残りの削除は続けます。
func PurgeWorkspace(ctx context.Context, assets storage.Storage, job PurgeJob) error {
	var errs []error
	if err := removeDir(job.Dir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove %s: %w", job.Dir, err))
	}
	if assets != nil {
		for _, key := range job.AssetKeys {
			if err := assets.Delete(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("failed to delete asset %s: %w", key, err))
			}
		}
	}
	return errors.Join(errs...)
}

// timerPurger はプロセス内タイマーで削除します（Redis 未設定時）。
type timerPurger struct {
	assets storage.Storage
}

func (p timerPurger) SchedulePurge(_ context.Context, job PurgeJob, after time.Duration) error {
	time.AfterFunc(after, func() {
		_ = PurgeWorkspace(context.Background(), p.assets, job)
	})
	return nil
}
