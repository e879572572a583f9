package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 2 * time.Minute
	lockPollInterval = 50 * time.Millisecond
)

// ErrLockNotAcquired is returned when the lock could not be taken before the context ended.
var ErrLockNotAcquired = errors.New("solution is being processed, try again later")

// SolutionLocker serializes work on one (user, problem) solution.
type SolutionLocker interface {
	Lock(ctx context.Context, userID, problemID uint) (unlock func(), err error)
}

// NewSolutionLocker returns a Redis backed locker when a client is configured
// and an in-process one otherwise.
func NewSolutionLocker(client *redis.Client, ttl time.Duration) SolutionLocker {
	if client == nil {
		return NewLocalSolutionLocker()
	}
	return NewRedisSolutionLocker(client, ttl)
}

func solutionLockKey(userID, problemID uint) string {
	return fmt.Sprintf("roots:lock:solution:%d:%d", userID, problemID)
}

type localLock struct {
	held chan struct{}
	refs int
}

type localSolutionLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

// NewLocalSolutionLocker builds a keyed mutex valid within one process.
func NewLocalSolutionLocker() SolutionLocker {
	return &localSolutionLocker{locks: make(map[string]*localLock)}
}

func (l *localSolutionLocker) Lock(ctx context.Context, userID, problemID uint) (func(), error) {
	key := solutionLockKey(userID, problemID)

	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &localLock{held: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.held <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lock)
		return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.held
			l.release(key, lock)
		})
	}, nil
}

func (l *localSolutionLocker) release(key string, lock *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisSolutionLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSolutionLocker builds a lock shared by every API instance using the same Redis.
func NewRedisSolutionLocker(client *redis.Client, ttl time.Duration) SolutionLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &redisSolutionLocker{client: client, ttl: ttl}
}

func (l *redisSolutionLocker) Lock(ctx context.Context, userID, problemID uint) (func(), error) {
	key := solutionLockKey(userID, problemID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
			}
			return nil, fmt.Errorf("acquire solution lock: %w", err)
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release must still happen.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseLockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}, nil
}
