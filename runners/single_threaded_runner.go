package runners

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alekLukanen/errs"

	"github.com/alekLukanen/SparkifyLake/storage"
	"github.com/alekLukanen/SparkifyLake/warehouse"
)

type IWarehouse interface {
	Run(context.Context) (warehouse.RunSummary, error)
	RunId() string
	OutputLocation() storage.Location
}

type SingleThreadedRunnerOptions struct {
	LockDuration time.Duration
	// ExtendInterval is how often the run lock is extended while the
	// warehouse runs. Defaults to half of LockDuration.
	ExtendInterval time.Duration
}

// SingleThreadedRunner runs the warehouse once. With key storage the run
// holds the lock of its output location and records its summary there.
type SingleThreadedRunner struct {
	logger *slog.Logger

	warehouse  IWarehouse
	keyStorage storage.IKeyStorage
	options    SingleThreadedRunnerOptions
}

func NewSingleThreadedRunner(
	logger *slog.Logger,
	wh IWarehouse,
	keyStorage storage.IKeyStorage,
	options SingleThreadedRunnerOptions,
) *SingleThreadedRunner {
	if options.LockDuration <= 0 {
		options.LockDuration = 30 * time.Minute
	}
	if options.ExtendInterval <= 0 || options.ExtendInterval >= options.LockDuration {
		options.ExtendInterval = max(options.LockDuration/2, time.Millisecond)
	}
	return &SingleThreadedRunner{
		logger:     logger,
		warehouse:  wh,
		keyStorage: keyStorage,
		options:    options,
	}
}

func (obj *SingleThreadedRunner) Run(ctx context.Context) (summary warehouse.RunSummary, err error) {
	if obj.keyStorage == nil {
		return obj.warehouse.Run(ctx)
	}

	target := obj.warehouse.OutputLocation().String()
	lock, err := obj.keyStorage.ClaimRunLock(ctx, target, obj.options.LockDuration)
	if err != nil {
		return summary, err
	}
	defer func() {
		// the run context may be cancelled, the lock is released regardless
		released, releaseErr := obj.keyStorage.ReleaseRunLock(context.WithoutCancel(ctx), lock)
		if releaseErr == nil && released {
			obj.logger.Info("released run lock", slog.String("lock", lock.Name()))
			return
		}
		obj.logger.Error(
			"failed releasing run lock",
			slog.String("lock", lock.Name()),
			slog.Bool("released", released),
			slog.Any("error", releaseErr),
		)
		if err == nil {
			err = errs.Wrap(errs.NewStackError(fmt.Errorf("lock %s", lock.Name())), ErrLockNotReleased)
			if releaseErr != nil {
				err = errs.Wrap(err, releaseErr)
			}
		}
	}()

	runCtx, cancelRun := context.WithCancelCause(ctx)
	defer cancelRun(nil)

	stopExtending := obj.extendLock(runCtx, lock, cancelRun)
	summary, err = obj.warehouse.Run(runCtx)
	stopExtending()

	if cause := context.Cause(runCtx); errors.Is(cause, ErrLockLost) {
		if err != nil {
			return summary, errs.Wrap(cause, err)
		}
		return summary, cause
	}
	if err != nil {
		return summary, err
	}

	if summaryErr := obj.keyStorage.SetRunSummary(ctx, target, summary.RunId, summary.Fields()); summaryErr != nil {
		obj.logger.Warn(
			"failed recording run summary",
			slog.String("runId", summary.RunId),
			slog.String("error", errs.ErrorWithStack(summaryErr)),
		)
	}
	return summary, nil
}

// extendLock keeps the run lock alive until the returned stop func is
// called. A failed extension cancels the run with ErrLockLost.
func (obj *SingleThreadedRunner) extendLock(ctx context.Context, lock storage.ILock, cancelRun context.CancelCauseFunc) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(obj.options.ExtendInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			extended, err := obj.keyStorage.ExtendRunLock(ctx, lock)
			if err == nil && extended {
				obj.logger.Debug("extended run lock", slog.String("lock", lock.Name()))
				continue
			}
			if ctx.Err() != nil {
				return
			}

			obj.logger.Error(
				"failed extending run lock",
				slog.String("lock", lock.Name()),
				slog.Bool("extended", extended),
				slog.Any("error", err),
			)
			lostErr := errs.Wrap(errs.NewStackError(fmt.Errorf("lock %s", lock.Name())), ErrLockLost)
			if err != nil {
				lostErr = errs.Wrap(lostErr, err)
			}
			cancelRun(lostErr)
			return
		}
	}()

	return func() {
		close(stop)
		<-done
	}
}
