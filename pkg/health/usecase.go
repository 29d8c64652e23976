package health

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// Report maps each checker name to StatusOK or StatusFail. Failure details
// go to the log only.
type Report map[string]string

// ReadinessUseCase describes readiness verification.
type ReadinessUseCase interface {
	Ready(ctx context.Context) (Report, error)
}

type service struct {
	checkers []Checker
	logger   *zap.Logger
}

// NewService aggregates dependency checkers.
func NewService(logger *zap.Logger, checkers ...Checker) ReadinessUseCase {
	return &service{checkers: checkers, logger: logger}
}

// Ready runs every checker, even after a failure, so the report is complete.
func (s *service) Ready(ctx context.Context) (Report, error) {
	report := make(Report, len(s.checkers))
	var errs []error
	for _, ch := range s.checkers {
		if err := ch.Check(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.String("check", ch.Name()), zap.Error(err))
			report[ch.Name()] = StatusFail
			errs = append(errs, errors.New(ch.Name()+": "+err.Error()))
			continue
		}
		report[ch.Name()] = StatusOK
	}
	return report, errors.Join(errs...)
}
