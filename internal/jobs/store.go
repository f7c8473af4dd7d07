package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/curriculum-forge/internal/pdf"
)

const (
	exportKeyPrefix = "export:"
)

// ErrRecordNotFound は出力記録が存在しない（期限切れを含む）場合に返されます。
var ErrRecordNotFound = errors.New("export record not found")

// Store は出力記録を Redis に保存します。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
		now: time.Now,
	}
}

// Get は出力記録を取得します。存在しない場合は nil を返します。
func (s *Store) Get(ctx context.Context, exportID string) (*Record, error) {
	if exportID == "" {
		return nil, fmt.Errorf("exportID is required")
	}
	data, err := s.rdb.Get(ctx, exportKey(exportID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord(data)
}

// Save は出力記録を保存します。
func (s *Store) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.ExportID == "" {
		return fmt.Errorf("record.ExportID is required")
	}
	now := s.now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.ExpiresAt.IsZero() && s.ttl > 0 {
		record.ExpiresAt = record.CreatedAt.Add(s.ttl)
	}

	payload, err := json.Marshal(storedRecord{Record: *record, Owner: record.Owner})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, exportKey(record.ExportID), payload, s.ttl).Err()
}

// RecordExport は出力完了時に呼ばれ、ユーザーに紐づく記録を保存します。
func (s *Store) RecordExport(ctx context.Context, username string, meta pdf.ExportMeta) error {
	return s.Save(ctx, &Record{
		ExportID:    meta.ExportID,
		Owner:       username,
		Status:      StatusReady,
		Institution: meta.Institution,
		Filename:    meta.Filename,
		Size:        meta.Size,
		Pages:       meta.Pages,
		Paragraphs:  meta.Paragraphs,
		Logo:        meta.Logo,
		CreatedAt:   meta.CreatedAt,
		ExpiresAt:   meta.ExpiresAt,
	})
}

// MarkPurged は作業ディレクトリ削除済みとして記録を更新します。
func (s *Store) MarkPurged(ctx context.Context, exportID string) error {
	return s.updatePartial(ctx, exportID, func(record *Record) {
		record.Status = StatusPurged
	})
}

func (s *Store) updatePartial(ctx context.Context, exportID string, mutate func(*Record)) error {
	key := exportKey(exportID)
	for {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrRecordNotFound
				}
				return err
			}
			record, err := decodeRecord(data)
			if err != nil {
				return err
			}
			mutate(record)
			record.UpdatedAt = s.now().UTC()
			payload, err := json.Marshal(storedRecord{Record: *record, Owner: record.Owner})
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, redis.KeepTTL)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
}

func decodeRecord(data []byte) (*Record, error) {
	var stored storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	record := stored.Record
	record.Owner = stored.Owner
	return &record, nil
}

func exportKey(id string) string {
	return exportKeyPrefix + id
}
