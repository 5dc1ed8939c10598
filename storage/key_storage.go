package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/go-redsync/redsync/v4"
	redsyncredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

type ILock interface {
	TryLockContext(context.Context) error
	UnlockContext(context.Context) (bool, error)
	ExtendContext(context.Context) (bool, error)
	Name() string
}

type IKeyStorage interface {
	ClaimRunLock(context.Context, string, time.Duration) (ILock, error)
	ExtendRunLock(context.Context, ILock) (bool, error)
	ReleaseRunLock(context.Context, ILock) (bool, error)
	SetRunSummary(context.Context, string, string, map[string]interface{}) error
	Close() error
}

type KeyStorageOptions struct {
	Address   string
	Password  string
	KeyPrefix string
}

type KeyStorage struct {
	logger *slog.Logger
	client *goredislib.Client
	pool   redsyncredis.Pool
	sync   *redsync.Redsync

	KeyPrefix string
}

func NewKeyStorage(
	ctx context.Context,
	logger *slog.Logger,
	options KeyStorageOptions,
) (*KeyStorage, error) {
	client := goredislib.NewClient(&goredislib.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       0,
	})

	keyStorage := KeyStorage{
		logger:    logger,
		client:    client,
		KeyPrefix: options.KeyPrefix,
	}

	pingCtx, cancelFunc := keyStorage.DerCtx(ctx)
	defer cancelFunc()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errs.Wrap(err, fmt.Errorf("failed connecting to redis at %s", options.Address))
	}

	keyStorage.pool = goredis.NewPool(client)
	keyStorage.sync = redsync.New(keyStorage.pool)
	return &keyStorage, nil
}

func (obj *KeyStorage) Key(key string) string {
	return fmt.Sprintf("%s-%s", obj.KeyPrefix, key)
}

func (obj *KeyStorage) DerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	derivedCtx, cancelFunc := context.WithTimeout(ctx, time.Second*15)
	return derivedCtx, cancelFunc
}

func (obj *KeyStorage) AcquireLock(ctx context.Context, key string, duration time.Duration) (ILock, error) {
	mutex := obj.sync.NewMutex(obj.Key(key), redsync.WithExpiry(duration), redsync.WithTries(1))
	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, err
	}
	return mutex, nil
}

func (obj *KeyStorage) ExtendLock(ctx context.Context, lock ILock) (bool, error) {
	ok, err := lock.ExtendContext(ctx)
	return ok, err
}

func (obj *KeyStorage) ReleaseLock(ctx context.Context, lock ILock) (bool, error) {
	ok, err := lock.UnlockContext(ctx)
	return ok, err
}

// ClaimRunLock takes the exclusive lock of a run target such as an output
// location. A lock held by another run fails with ErrRunLocked.
func (obj *KeyStorage) ClaimRunLock(ctx context.Context, target string, duration time.Duration) (ILock, error) {
	key := fmt.Sprintf("run-lock/%s", target)
	lock, err := obj.AcquireLock(ctx, key, duration)
	if err != nil {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("target %s", target)), ErrRunLocked, err)
	}
	obj.logger.Info("claimed run lock", slog.String("lock", lock.Name()), slog.Duration("expiry", duration))
	return lock, nil
}

// ExtendRunLock resets the expiry of a claimed run lock. It reports false
// once the lock expired and was taken by another run.
func (obj *KeyStorage) ExtendRunLock(ctx context.Context, lock ILock) (bool, error) {
	ctx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()
	return obj.ExtendLock(ctx, lock)
}

func (obj *KeyStorage) ReleaseRunLock(ctx context.Context, lock ILock) (bool, error) {
	ctx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()
	return obj.ReleaseLock(ctx, lock)
}

// SetRunSummary stores the summary fields of a run in a hash and points
// the target's last-run key at it.
func (obj *KeyStorage) SetRunSummary(ctx context.Context, target string, runId string, fields map[string]interface{}) error {
	ctx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()

	summaryKey := obj.Key(fmt.Sprintf("run-summary/%s", runId))
	if err := obj.client.HSet(ctx, summaryKey, fields).Err(); err != nil {
		return errs.Wrap(err)
	}
	if err := obj.client.Set(ctx, obj.Key(fmt.Sprintf("last-run/%s", target)), runId, 0).Err(); err != nil {
		return errs.Wrap(err)
	}
	return nil
}

func (obj *KeyStorage) Close() error {
	return obj.client.Close()
}
