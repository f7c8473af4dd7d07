package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/pdf"
	"github.com/yourusername/curriculum-forge/internal/storage"
)

const (
	taskTypePurge = "export:purge"
	queueName     = "maintenance"
)

// enqueuer は asynq.Client のうち Manager が使う部分です。
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Manager は作業ディレクトリとロゴの削除タスクの投入と実行を担います。
type Manager struct {
	client enqueuer
	server *asynq.Server
	mux    *asynq.ServeMux
	store  *Store
	assets storage.Storage
	logger logrus.FieldLogger
}

// NewManager は Redis URL から asynq のクライアントとサーバーを初期化します。
// store が nil の場合、削除結果は記録されません。assets は永続化したロゴの削除先です。
func NewManager(redisURL string, store *Store, assets storage.Storage, logger logrus.FieldLogger) (*Manager, error) {
	if redisURL == "" {
		return nil, errors.New("redis url is empty")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queueName: 1,
			},
			Logger: logger,
		},
	)
	return newManager(asynq.NewClient(opt), server, store, assets, logger), nil
}

func newManager(client enqueuer, server *asynq.Server, store *Store, assets storage.Storage, logger logrus.FieldLogger) *Manager {
	mux := asynq.NewServeMux()
	manager := &Manager{
		client: client,
		server: server,
		mux:    mux,
		store:  store,
		assets: assets,
		logger: logger,
	}
	mux.HandleFunc(taskTypePurge, manager.handlePurgeTask)
	return manager
}

// StartWorkers は asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	if m.server == nil {
		return
	}
	go func() {
		if err := m.server.Run(m.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			m.logger.WithError(err).Error("asynq server stopped")
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown() error {
	if m.server != nil {
		m.server.Shutdown()
	}
	return m.client.Close()
}

// SchedulePurge は after 経過後に作業ディレクトリとロゴを削除するタスクを投入します。
func (m *Manager) SchedulePurge(ctx context.Context, job pdf.PurgeJob, after time.Duration) error {
	if job.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskTypePurge, body, asynq.Queue(queueName))
	info, err := m.client.EnqueueContext(ctx, task, asynq.ProcessIn(after), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("failed to enqueue purge: %w", err)
	}
	m.logger.WithFields(logrus.Fields{
		"export_id": job.ExportID,
		"task_id":   info.ID,
		"after":     after.String(),
	}).Debug("purge scheduled")
	return nil
}

func (m *Manager) handlePurgeTask(ctx context.Context, task *asynq.Task) error {
	var payload pdf.PurgeJob
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.Dir == "" {
		return fmt.Errorf("%w: missing dir in payload", asynq.SkipRetry)
	}

	if err := pdf.PurgeWorkspace(ctx, m.assets, payload); err != nil {
		return err
	}

	log := m.logger.WithField("export_id", payload.ExportID)
	if m.store != nil && payload.ExportID != "" {
		if err := m.store.MarkPurged(ctx, payload.ExportID); err != nil && !errors.Is(err, ErrRecordNotFound) {
			log.WithError(err).Warn("export record not updated")
		}
	}
	log.WithField("assets", len(payload.AssetKeys)).Info("export workspace purged")
	return nil
}
