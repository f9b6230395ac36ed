package lock

import (
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultLockID is the id used for session level advisory locks. It is a crc64 hash of the
	// string "sqlauto".
	//
	// crc64.Checksum([]byte("sqlauto"), crc64.MakeTable(crc64.ECMA))
	DefaultLockID int64 = 5814512237343020043
)

// ProbeConfig describes how often to retry and how many failed attempts are tolerated.
type ProbeConfig struct {
	IntervalDuration time.Duration
	FailureThreshold uint64
}

func (p ProbeConfig) backoff() retry.Backoff {
	return retry.WithMaxRetries(p.FailureThreshold, retry.NewConstant(p.IntervalDuration))
}

// Option is used to configure a Locker.
type Option interface {
	apply(*config) error
}

// WithLockID sets the lock ID used by session lockers.
//
// If WithLockID is not called, the DefaultLockID is used.
func WithLockID(lockID int64) Option {
	return configFunc(func(c *config) error {
		if lockID == 0 {
			return errors.New("lock id must not be zero")
		}
		c.lockID = lockID
		return nil
	})
}

// WithLockTimeout sets how long to keep trying to acquire the lock.
func WithLockTimeout(interval time.Duration, failureThreshold uint64) Option {
	return configFunc(func(c *config) error {
		if interval <= 0 {
			return errors.New("lock timeout interval must be positive")
		}
		if failureThreshold == 0 {
			return errors.New("lock timeout failure threshold must be positive")
		}
		c.lockTimeout = ProbeConfig{IntervalDuration: interval, FailureThreshold: failureThreshold}
		return nil
	})
}

// WithUnlockTimeout sets how long to keep trying to release the lock.
func WithUnlockTimeout(interval time.Duration, failureThreshold uint64) Option {
	return configFunc(func(c *config) error {
		if interval <= 0 {
			return errors.New("unlock timeout interval must be positive")
		}
		if failureThreshold == 0 {
			return errors.New("unlock timeout failure threshold must be positive")
		}
		c.unlockTimeout = ProbeConfig{IntervalDuration: interval, FailureThreshold: failureThreshold}
		return nil
	})
}

type config struct {
	lockID        int64
	lockTimeout   ProbeConfig
	unlockTimeout ProbeConfig
}

// newConfig returns the defaults with opts applied:
//
//	Lock ID: DefaultLockID
//	Lock retry: 2s intervals, 5min timeout
//	Unlock retry: 2s intervals, 1min timeout
func newConfig(opts []Option) (config, error) {
	cfg := config{
		lockID: DefaultLockID,
		lockTimeout: ProbeConfig{
			IntervalDuration: 2 * time.Second,
			FailureThreshold: 150,
		},
		unlockTimeout: ProbeConfig{
			IntervalDuration: 2 * time.Second,
			FailureThreshold: 30,
		},
	}
	for _, opt := range opts {
		if err := opt.apply(&cfg); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}

var _ Option = (configFunc)(nil)

type configFunc func(*config) error

func (f configFunc) apply(cfg *config) error {
	return f(cfg)
}
