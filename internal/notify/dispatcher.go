// Package notify holds the outbound side-effect hooks the trade
// lifecycle fires after a transition commits. Hooks are best effort:
// a failure is logged and never rolls back the committed transition.
package notify

import (
	"context"
	"log"

	"skilltrade/internal/domain/trade"
)

// Dispatcher is the achievement/notification collaborator. Concrete
// implementations call external systems; the engine only requires that
// they return promptly or honor the context.
type Dispatcher interface {
	TradeCompleted(ctx context.Context, t trade.Request) error
}

// LogDispatcher is the default wiring: it records the side effect in
// the log instead of calling out, which keeps the engine runnable
// without the external achievement service.
type LogDispatcher struct {
	logger *log.Logger
}

func NewLogDispatcher(logger *log.Logger) *LogDispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) TradeCompleted(_ context.Context, t trade.Request) error {
	d.logger.Printf("notify | trade completed trade=%s initiator=%s receiver=%s stake=%d",
		t.ID, t.InitiatorID, t.ReceiverID, t.CreditStake)
	return nil
}
