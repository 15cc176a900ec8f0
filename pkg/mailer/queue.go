package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"anoa.com/socialgraph/pkg/apperror"
	"anoa.com/socialgraph/pkg/logger"
	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type QueueOptions struct {
	Size          int
	Workers       int
	RatePerSecond float64
	MaxAttempts   uint
	RetryDelay    time.Duration
	SendTimeout   time.Duration
}

// Queue sends emails in the background. Enqueue never blocks: when the
// buffer is full the message is dropped and logged.
type Queue struct {
	sender  Sender
	ch      chan Message
	limiter *rate.Limiter
	opts    QueueOptions

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewQueue(sender Sender, opts QueueOptions) *Queue {
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}

	limit := rate.Inf
	burst := 0
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		burst = 1
	}

	return &Queue{
		sender:  sender,
		ch:      make(chan Message, opts.Size),
		limiter: rate.NewLimiter(limit, burst),
		opts:    opts,
		stop:    make(chan struct{}),
	}
}

// Start launches the workers and returns a stop function that drains the
// buffer before returning, or gives up when ctx ends.
func (q *Queue) Start() func(context.Context) error {
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.loop()
	}

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(q.stop) })

		done := make(chan struct{})
		go func() {
			q.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *Queue) Enqueue(msg Message) bool {
	select {
	case q.ch <- msg:
		return true
	default:
		logger.Warn("email queue full, dropping message",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		return false
	}
}

func (q *Queue) QueueLen() int { return len(q.ch) }

func (q *Queue) loop() {
	defer q.wg.Done()
	for {
		select {
		case msg := <-q.ch:
			q.deliver(msg)
		case <-q.stop:
			for {
				select {
				case msg := <-q.ch:
					q.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), q.opts.SendTimeout*time.Duration(q.opts.MaxAttempts))
	defer cancel()

	if err := q.limiter.Wait(ctx); err != nil {
		logger.Warn("email rate limiter aborted", zap.String("to", msg.To), zap.Error(err))
		return
	}

	err := retry.Do(func() error {
		sendCtx, sendCancel := context.WithTimeout(ctx, q.opts.SendTimeout)
		defer sendCancel()
		return q.sender.Send(sendCtx, msg)
	},
		retry.Attempts(q.opts.MaxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(q.opts.RetryDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying email",
				zap.String("to", msg.To),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		logger.Warn("email delivery failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(errors.Join(apperror.ErrDeliveryFailure, err)),
		)
	}
}
