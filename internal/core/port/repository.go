package port

import (
	"context"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

type CallRecordRepository interface {
	Save(ctx context.Context, record domain.CallRecord) error
	List(ctx context.Context) ([]domain.CallRecord, error)
}
