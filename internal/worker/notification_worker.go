package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/observability"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/service"
)

// reviewQueueSampleLimit caps the backlog sample; depths beyond it read as
// saturated.
const reviewQueueSampleLimit = 500

// StartNotificationWorker registers the notification relay on the dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartReviewQueueMonitor samples the manual review backlog on an interval
// and feeds the queue depth gauge. It runs until the context is cancelled.
func StartReviewQueueMonitor(ctx context.Context, tickets *service.TicketService, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) {
	if tickets == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				queue, err := tickets.ReviewQueue(ctx, reviewQueueSampleLimit, 0)
				if err != nil {
					logger.Warn("review queue sample failed", zap.Error(err))
					continue
				}
				metrics.SetReviewQueueDepth(len(queue))
			}
		}
	}()
}
