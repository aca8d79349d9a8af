package consult

import (
	"context"
	"database/sql"
	"sync"

	"dolo/internal/cache"
	"dolo/internal/models"
	"dolo/internal/service/ai"
)

// Analyzer is the inference gateway consumed by the orchestration
// pipelines. Implemented by *ai.Gateway; tests inject fakes.
type Analyzer interface {
	TextExchange(ctx context.Context, turns []*models.Message) (ai.Outcome, error)
	ImageExchange(ctx context.Context, turns []*models.Message, data []byte, mimeType string) (ai.Outcome, error)
}

// Service owns conversation, message and report persistence plus the two
// request pipelines that drive the inference gateway.
type Service struct {
	db        *sql.DB
	cache     *cache.Client
	gateway   Analyzer
	uploadDir string

	// Serializes the write pipelines per conversation id so concurrent
	// requests against one conversation cannot interleave their
	// persist/read/persist sequences. Reads are not serialized.
	locks sync.Map
}

// NewService builds the consultation service. The cache client may be nil.
func NewService(db *sql.DB, cacheClient *cache.Client, gateway Analyzer, uploadDir string) *Service {
	return &Service{
		db:        db,
		cache:     cacheClient,
		gateway:   gateway,
		uploadDir: uploadDir,
	}
}

func (s *Service) lockConversation(id int64) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
