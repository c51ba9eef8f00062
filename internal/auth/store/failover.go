package store

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Failover decorates a primary KV with an in-process fallback. Every
// operation tries the primary first; infrastructure errors are logged and
// the fallback serves the request instead. ErrNotFound is a result, not a
// failure, and never triggers the fallback. Both backends are injected so
// tests can drive either side directly.
//
// Entries written to the fallback during an outage are not replayed into
// the primary when it recovers. Single-node approximation, matching the
// limiter's fixed-window semantics.
type Failover struct {
	primary  KV
	fallback KV
	logger   *slog.Logger
}

var _ KV = (*Failover)(nil)

// NewFailover wraps primary with fallback. A nil primary routes everything
// to the fallback, which covers single-process deployments with no Redis.
func NewFailover(primary, fallback KV, logger *slog.Logger) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{primary: primary, fallback: fallback, logger: logger}
}

func (f *Failover) Get(ctx context.Context, key string) (string, error) {
	if f.primary != nil {
		val, err := f.primary.Get(ctx, key)
		if err == nil || errors.Is(err, ErrNotFound) {
			return val, err
		}
		f.warn(ctx, "get", key, err)
	}
	return f.fallback.Get(ctx, key)
}

func (f *Failover) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.primary != nil {
		err := f.primary.SetWithTTL(ctx, key, value, ttl)
		if err == nil {
			return nil
		}
		f.warn(ctx, "set", key, err)
	}
	return f.fallback.SetWithTTL(ctx, key, value, ttl)
}

func (f *Failover) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if f.primary != nil {
		count, err := f.primary.IncrWithTTL(ctx, key, ttl)
		if err == nil {
			return count, nil
		}
		f.warn(ctx, "incr", key, err)
	}
	return f.fallback.IncrWithTTL(ctx, key, ttl)
}

func (f *Failover) GetDel(ctx context.Context, key string) (string, error) {
	if f.primary != nil {
		val, err := f.primary.GetDel(ctx, key)
		if err == nil || errors.Is(err, ErrNotFound) {
			return val, err
		}
		f.warn(ctx, "getdel", key, err)
	}
	return f.fallback.GetDel(ctx, key)
}

func (f *Failover) Delete(ctx context.Context, key string) error {
	if f.primary != nil {
		err := f.primary.Delete(ctx, key)
		if err == nil {
			return nil
		}
		f.warn(ctx, "delete", key, err)
	}
	return f.fallback.Delete(ctx, key)
}

// Ping reports healthy if either backend is reachable, since the service
// keeps working on the fallback alone.
func (f *Failover) Ping(ctx context.Context) error {
	if f.primary != nil {
		if err := f.primary.Ping(ctx); err == nil {
			return nil
		}
	}
	return f.fallback.Ping(ctx)
}

func (f *Failover) Close() error {
	var errs []error
	if f.primary != nil {
		if err := f.primary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := f.fallback.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (f *Failover) warn(ctx context.Context, op, key string, err error) {
	f.logger.WarnContext(ctx, "primary store unavailable, using fallback",
		"op", op,
		"key", key,
		"err", err,
	)
}
