package auth

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// LoginLimiter считает неудачные попытки входа по IP. Окно отсчитывается от
// первой неудачи; по его истечении счётчик исчезает из кэша сам.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts *cache.Cache
	max      int
	window   time.Duration
}

func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		attempts: cache.New(window, 2*window),
		max:      max,
		window:   window,
	}
}

// Check returns true if the IP has not exceeded the limit.
func (l *LoginLimiter) Check(ip string) bool {
	v, found := l.attempts.Get(ip)
	if !found {
		return true
	}
	return v.(int) < l.max
}

// Record registers a failed login attempt.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.attempts.Add(ip, 1, l.window); err != nil {
		_, _ = l.attempts.IncrementInt(ip, 1)
	}
}

func (l *LoginLimiter) Reset(ip string) {
	l.attempts.Delete(ip)
}
