package worker

import (
	"context"

	"github.com/spec-kit/ticketbot/internal/gateway"
	"github.com/spec-kit/ticketbot/internal/service"
)

// StartNotificationWorker registers notification handlers immediately and
// returns the loop that delivers their follow-ups until its context ends.
func StartNotificationWorker(notificationService *service.NotificationService, queue *gateway.Queue) func(ctx context.Context) error {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	return func(ctx context.Context) error {
		if queue == nil {
			<-ctx.Done()
			return nil
		}
		return queue.Run(ctx)
	}
}
