// Package ratelimit provides the request-shaping check that runs before
// transaction creation.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrRateLimited means the caller exceeded the per-window allowance.
	ErrRateLimited = errors.New("too many requests")
	// ErrBlocked means the caller kept hammering past the limit and is
	// temporarily blocked.
	ErrBlocked = errors.New("request blocked")
)

type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	requestsPerWindow int
	window            time.Duration
	blockThreshold    int
	blockDuration     time.Duration
	cleanupInterval   time.Duration
}

type clientInfo struct {
	windowStart  time.Time
	requests     int
	strikes      int
	blockedUntil time.Time
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerWindow int
	Window            time.Duration
	BlockThreshold    int
	BlockDuration     time.Duration
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		BlockThreshold:    10,
		BlockDuration:     15 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerWindow <= 0 {
		config = DefaultConfig()
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.BlockThreshold <= 0 {
		config.BlockThreshold = 10
	}
	if config.BlockDuration <= 0 {
		config.BlockDuration = 15 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	l := &Limiter{
		clients:           make(map[string]*clientInfo),
		stopCleanup:       make(chan struct{}),
		requestsPerWindow: config.RequestsPerWindow,
		window:            config.Window,
		blockThreshold:    config.BlockThreshold,
		blockDuration:     config.BlockDuration,
		cleanupInterval:   config.CleanupInterval,
	}
	go l.startCleanup()
	return l
}

// Check decides whether the given user may proceed. It returns nil,
// ErrRateLimited, or ErrBlocked.
func (l *Limiter) Check(userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	info, ok := l.clients[userID]
	if !ok {
		info = &clientInfo{windowStart: now}
		l.clients[userID] = info
	}

	if now.Before(info.blockedUntil) {
		return ErrBlocked
	}

	if now.Sub(info.windowStart) >= l.window {
		info.windowStart = now
		info.requests = 0
		info.strikes = 0
	}

	info.requests++
	if info.requests <= l.requestsPerWindow {
		return nil
	}

	// Over the limit. Repeated offenders within the same window get blocked.
	info.strikes++
	if info.strikes >= l.blockThreshold {
		info.blockedUntil = now.Add(l.blockDuration)
		return ErrBlocked
	}
	return ErrRateLimited
}

func (l *Limiter) startCleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCleanup:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for userID, info := range l.clients {
		if now.Sub(info.windowStart) >= l.cleanupInterval && now.After(info.blockedUntil) {
			delete(l.clients, userID)
		}
	}
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}
