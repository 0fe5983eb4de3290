package mail

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
)

// Notifier sends account emails in the background. Each send gets its own
// timeout and is detached from the request context, so a finished request
// does not cancel its email.
type Notifier struct {
	mailer  Mailer
	logger  logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotifier(m Mailer, l logging.Logger, timeout time.Duration) *Notifier {
	return &Notifier{mailer: m, logger: l.With("module", "notifier"), timeout: timeout}
}

func (n *Notifier) SendWelcome(email, name string) {
	n.dispatch(WelcomeMessage(email, name))
}

func (n *Notifier) SendGoodbye(email, name string) {
	n.dispatch(GoodbyeMessage(email, name))
}

func (n *Notifier) dispatch(msg Message) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx := context.Background()
		if n.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, n.timeout)
			defer cancel()
		}

		if err := n.mailer.Send(ctx, msg); err != nil {
			n.logger.Warn(ctx, "mail delivery failed", "to", msg.ToEmail, "subject", msg.Subject, "error", err)
			return
		}
		n.logger.Debug(ctx, "mail sent", "to", msg.ToEmail, "subject", msg.Subject)
	}()
}

// Wait blocks until pending sends finish or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
