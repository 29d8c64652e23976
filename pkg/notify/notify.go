// Package notify delivers hiring-workflow notifications to applicants.
// Delivery is fire-and-forget: a failed notification is logged and never
// reaches the operation that triggered it.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Template string

const (
	TemplateShortlisted        Template = "application.shortlisted"
	TemplateRejected           Template = "application.rejected"
	TemplateStatusChanged      Template = "application.status_changed"
	TemplateInterviewScheduled Template = "application.interview_scheduled"
)

type Notification struct {
	Template  Template          `json:"template"`
	Recipient string            `json:"recipient"`
	Data      map[string]string `json:"data"`
}

// Notifier performs the actual delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher runs deliveries in the background with their own deadline.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, timeout: timeout, logger: logger}
}

// Builder assembles a notification. It runs on the delivery goroutine, so
// lookups it performs stay off the caller's path.
type Builder func(ctx context.Context) (Notification, error)

// Dispatch returns immediately. ctx only contributes its values (trace
// span); cancellation of the request does not abort delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	if n.Recipient == "" {
		d.logger.Warn("notification skipped: no recipient", zap.String("template", string(n.Template)))
		return
	}
	d.DispatchFunc(ctx, n.Template, func(context.Context) (Notification, error) { return n, nil })
}

// DispatchFunc is Dispatch for notifications whose content still has to be
// looked up. build shares the delivery deadline.
func (d *Dispatcher) DispatchFunc(ctx context.Context, tmpl Template, build Builder) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notifier panicked",
					zap.String("template", string(tmpl)),
					zap.Any("panic", r),
				)
			}
		}()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		n, err := build(dctx)
		if err != nil {
			d.logger.Warn("notification build failed",
				zap.String("template", string(tmpl)),
				zap.Error(err),
			)
			return
		}
		if n.Recipient == "" {
			d.logger.Warn("notification skipped: no recipient", zap.String("template", string(tmpl)))
			return
		}

		if err := d.notifier.Notify(dctx, n); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("template", string(n.Template)),
				zap.String("recipient", n.Recipient),
				zap.Error(err),
			)
			return
		}
		d.logger.Debug("notification delivered",
			zap.String("template", string(n.Template)),
			zap.String("recipient", n.Recipient),
		)
	}()
}

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("notification",
		zap.String("template", string(n.Template)),
		zap.String("recipient", n.Recipient),
		zap.Any("data", n.Data),
	)
	return nil
}
