package callbacklog

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/pkg/logctx"
	"github.com/lostmedia/payments/pkg/tool"
)

// Service persists the audit trail of gateway webhook deliveries. Writes are
// asynchronous but supervised: Drain waits for in-flight entries on shutdown.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	wg  sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a callback log entry. Nil input is ignored;
// the webhook path must never block or fail on audit logging.
func (s *Service) Save(ctx context.Context, entry *models.PaymentCallbackLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save callback log: %v", err)
		}
	}()
}

// Drain blocks until every in-flight write has finished or the context is
// cancelled.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
