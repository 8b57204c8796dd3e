package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limited")

// RateLimiter limita la frecuencia de turnos por clave (el uid del dueño).
type RateLimiter interface {
	Allow(key string) bool
}

// memoryRateLimiter mantiene un token bucket por clave dentro del proceso.
type memoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewMemoryRateLimiter permite perMinute eventos por minuto con ráfagas de burst.
func NewMemoryRateLimiter(perMinute, burst int) RateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	return &memoryRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (l *memoryRateLimiter) Allow(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	return l.get(key).Allow()
}

func (l *memoryRateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.every, l.burst)
	l.limiters[key] = lim
	return lim
}
