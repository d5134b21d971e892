package detections

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultPoolSize Pool configuration
	DefaultPoolSize   = 4
	AcquireTimeout    = 5 * time.Second
	HealthCheckPeriod = 60 * time.Second
)

var (
	ErrPoolClosed     = errors.New("pool is closed")
	ErrAcquireTimeout = errors.New("timeout waiting for available session")
)

type ModelSessionPool struct {
	name       string
	sessions   chan *ModelSession
	size       int
	factory    SessionFactory
	mu         sync.Mutex
	closed     bool
	stop       chan struct{}
	metrics    *PoolMetrics
	lastErrors []error
}

type PoolMetrics struct {
	mu sync.RWMutex
	poolCounters
}

type poolCounters struct {
	inUse           int
	totalAcquired   int64
	totalReleased   int64
	acquireFailures int64
	waitTime        time.Duration
}

func (m *PoolMetrics) update(fn func(*PoolMetrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}

// snapshot copies the counters; the returned value carries no lock.
func (m *PoolMetrics) snapshot() poolCounters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.poolCounters
}

func returned(m *PoolMetrics) {
	m.inUse--
	m.totalReleased++
}

// PoolStats is a point-in-time copy of the pool metrics.
type PoolStats struct {
	Name            string        `json:"name"`
	Size            int           `json:"pool_size"`
	InUse           int           `json:"sessions_in_use"`
	TotalAcquired   int64         `json:"total_acquired"`
	TotalReleased   int64         `json:"total_released"`
	AcquireFailures int64         `json:"acquire_failures"`
	WaitTime        time.Duration `json:"wait_time_ns"`
}

func NewModelSessionPool(name string, factory SessionFactory, size int) (*ModelSessionPool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}

	pool := &ModelSessionPool{
		name:     name,
		sessions: make(chan *ModelSession, size),
		size:     size,
		factory:  factory,
		stop:     make(chan struct{}),
		metrics:  &PoolMetrics{},
	}

	// Initialize sessions
	for i := 0; i < size; i++ {
		session, err := factory()
		if err != nil {
			pool.Destroy()
			return nil, fmt.Errorf("failed to initialize %s session %d: %w", name, i, err)
		}
		pool.sessions <- session
	}

	go pool.healthCheck()

	return pool, nil
}

func (p *ModelSessionPool) Acquire(ctx context.Context) (*ModelSession, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	start := time.Now()
	defer func() {
		p.metrics.update(func(m *PoolMetrics) { m.waitTime += time.Since(start) })
	}()

	timer := time.NewTimer(AcquireTimeout)
	defer timer.Stop()

	select {
	case session, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		p.metrics.update(func(m *PoolMetrics) {
			m.inUse++
			m.totalAcquired++
		})
		return session, nil
	case <-timer.C:
		p.metrics.update(func(m *PoolMetrics) { m.acquireFailures++ })
		return nil, ErrAcquireTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *ModelSessionPool) Release(session *ModelSession) {
	if session == nil {
		return
	}

	p.metrics.update(returned)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		session.Destroy()
		return
	}
	select {
	case p.sessions <- session:
	default:
		session.Destroy()
	}
}

// Discard destroys a session that failed during inference instead of
// returning it. The health check replaces it later.
func (p *ModelSessionPool) Discard(session *ModelSession) {
	if session == nil {
		return
	}

	p.metrics.update(returned)

	session.Destroy()
}

func (p *ModelSessionPool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.stop)
	close(p.sessions)

	for session := range p.sessions {
		session.Destroy()
	}
}

func (p *ModelSessionPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *ModelSessionPool) healthCheck() {
	ticker := time.NewTicker(HealthCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.replenish()
		}
	}
}

// replenish recreates discarded sessions so the pool keeps its configured size.
func (p *ModelSessionPool) replenish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	missing := p.size - len(p.sessions) - p.metrics.snapshot().inUse
	for i := 0; i < missing; i++ {
		session, err := p.factory()
		if err != nil {
			p.recordError(err)
			continue
		}
		select {
		case p.sessions <- session:
		default:
			session.Destroy()
		}
	}
}

// recordError must be called with p.mu held.
func (p *ModelSessionPool) recordError(err error) {
	p.lastErrors = append(p.lastErrors, err)
	if len(p.lastErrors) > 10 {
		p.lastErrors = p.lastErrors[1:]
	}
}

func (p *ModelSessionPool) LastErrors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.lastErrors...)
}

func (p *ModelSessionPool) GetMetrics() PoolStats {
	m := p.metrics.snapshot()
	return PoolStats{
		Name:            p.name,
		Size:            p.size,
		InUse:           m.inUse,
		TotalAcquired:   m.totalAcquired,
		TotalReleased:   m.totalReleased,
		AcquireFailures: m.acquireFailures,
		WaitTime:        m.waitTime,
	}
}
