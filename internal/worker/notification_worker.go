package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/service"
)

// Drainer is implemented by dispatchers that run handlers in the background.
type Drainer interface {
	Wait(ctx context.Context) error
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// Drain waits up to timeout for in-flight notifications during shutdown.
func Drain(d Drainer, timeout time.Duration, logger *zap.Logger) {
	if d == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		logger.Warn("notifications still in flight at shutdown", zap.Error(err))
	}
}
