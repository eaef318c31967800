package memory

import (
	"context"
	"sync"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

// CallRecordRepository keeps the most recent call records in process memory.
type CallRecordRepository struct {
	mu      sync.Mutex
	records []domain.CallRecord
	limit   int
}

// NewCallRecordRepository keeps at most limit records; limit <= 0 keeps all.
func NewCallRecordRepository(limit int) *CallRecordRepository {
	return &CallRecordRepository{
		records: make([]domain.CallRecord, 0),
		limit:   limit,
	}
}

func (r *CallRecordRepository) Save(ctx context.Context, record domain.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	if r.limit > 0 && len(r.records) > r.limit {
		r.records = append(r.records[:0:0], r.records[len(r.records)-r.limit:]...)
	}
	return nil
}

// List returns records newest first.
func (r *CallRecordRepository) List(ctx context.Context) ([]domain.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CallRecord, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}
