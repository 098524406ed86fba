package relay

import (
	"context"

	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/obslog"
	"github.com/park285/reedboard/pkg/boarddto"
)

// EventsPath is appended to the relay base URL.
const EventsPath = "/events"

// Forwarder posts every event from a channel to the relay in order.
type Forwarder struct {
	client *Client
	logger *zap.Logger
}

func NewForwarder(client *Client, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = obslog.L()
	}
	return &Forwarder{client: client, logger: logger}
}

// Run drains events until the channel closes or ctx is cancelled. A failed
// post is logged and skipped.
func (f *Forwarder) Run(ctx context.Context, events <-chan boarddto.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := f.client.PostJSON(ctx, EventsPath, ev); err != nil {
				if ctx.Err() != nil {
					return
				}
				f.logger.Warn("relay_post_failed", zap.String("event", ev.Type), zap.Error(err))
				continue
			}
			f.logger.Debug("relay_posted", zap.String("event", ev.Type))
		}
	}
}
