// Package circuitbreaker 熔断器
//
// 用于保护对外部依赖的调用（消息发布、通知投递）。
// 状态机：
//
//	CLOSED --(ShouldTrip)--> OPEN --(OpenTimeout)--> HALF_OPEN
//	HALF_OPEN --成功--> CLOSED
//	HALF_OPEN --失败--> OPEN
//
// 每次状态切换递增generation，切换前发出的请求结果不再计入新状态的统计。
package circuitbreaker

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-orders/pkg/logger"
	"github.com/xiebiao/bookstore-orders/pkg/metrics"
)

// State 熔断器状态
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
	}
}

// ErrOpen 熔断打开或半开探测名额已满时返回
var ErrOpen = errors.New("circuit breaker is open")

// Counts 当前统计窗口内的计数
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Settings 熔断器配置，零值字段使用默认值
type Settings struct {
	Name string
	// MaxProbes 半开状态允许通过的请求数（默认1）
	MaxProbes uint32
	// Window CLOSED状态下统计窗口长度，0表示不按时间重置
	Window time.Duration
	// OpenTimeout OPEN状态持续时间（默认30s）
	OpenTimeout time.Duration
	// ShouldTrip 默认连续失败5次熔断
	ShouldTrip func(Counts) bool
	// IsSuccessful 判断结果是否计为成功，默认 err == nil
	IsSuccessful func(error) bool
	// OnStateChange 状态切换回调（持锁调用，不要在回调里访问熔断器）
	OnStateChange func(name string, from, to State)
	// Now 时钟，测试时替换
	Now func() time.Time
}

// Breaker 熔断器
type Breaker struct {
	name         string
	maxProbes    uint32
	window       time.Duration
	openTimeout  time.Duration
	shouldTrip   func(Counts) bool
	isSuccessful func(error) bool
	onChange     func(string, State, State)
	now          func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

// New 创建熔断器
func New(s Settings) *Breaker {
	b := &Breaker{
		name:         s.Name,
		maxProbes:    s.MaxProbes,
		window:       s.Window,
		openTimeout:  s.OpenTimeout,
		shouldTrip:   s.ShouldTrip,
		isSuccessful: s.IsSuccessful,
		onChange:     s.OnStateChange,
		now:          s.Now,
	}
	if b.maxProbes == 0 {
		b.maxProbes = 1
	}
	if b.openTimeout <= 0 {
		b.openTimeout = 30 * time.Second
	}
	if b.shouldTrip == nil {
		b.shouldTrip = func(c Counts) bool { return c.ConsecutiveFailures >= 5 }
	}
	if b.isSuccessful == nil {
		b.isSuccessful = func(err error) bool { return err == nil }
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.resetWindow(b.now())
	metrics.CircuitBreakerState.WithLabelValues(b.name).Set(float64(StateClosed))
	return b
}

// Do 在熔断保护下执行fn
//
// 1. 熔断打开时直接返回ErrOpen，不调用fn
// 2. ctx已取消时返回ctx.Err()，不计入统计
// 3. fn的返回值原样返回
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	generation, err := b.before()
	if err != nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return err
	}

	err = fn(ctx)
	ok := b.isSuccessful(err)
	b.after(generation, ok)

	result := "success"
	if !ok {
		result = "failure"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, result).Inc()
	return err
}

// State 当前状态（会推进到期的OPEN到HALF_OPEN）
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, _ := b.current(b.now())
	return state
}

// Counts 当前统计快照
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Name 熔断器名称
func (b *Breaker) Name() string { return b.name }

func (b *Breaker) before() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, generation := b.current(b.now())
	switch {
	case state == StateOpen:
		return generation, ErrOpen
	case state == StateHalfOpen && b.counts.Requests >= b.maxProbes:
		return generation, ErrOpen
	}
	b.counts.Requests++
	return generation, nil
}

func (b *Breaker) after(before uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	state, generation := b.current(now)
	if generation != before {
		return
	}

	if ok {
		b.counts.success()
		if state == StateHalfOpen {
			b.transition(StateClosed, now)
		}
		return
	}

	b.counts.failure()
	switch state {
	case StateClosed:
		if b.shouldTrip(b.counts) {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		b.transition(StateOpen, now)
	}
}

func (b *Breaker) current(now time.Time) (State, uint64) {
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && b.expiry.Before(now) {
			b.counts = Counts{}
			b.resetWindow(now)
		}
	case StateOpen:
		if !b.expiry.After(now) {
			b.transition(StateHalfOpen, now)
		}
	}
	return b.state, b.generation
}

func (b *Breaker) resetWindow(now time.Time) {
	if b.window > 0 {
		b.expiry = now.Add(b.window)
	} else {
		b.expiry = time.Time{}
	}
}

func (b *Breaker) transition(to State, now time.Time) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.generation++
	b.counts = Counts{}

	switch to {
	case StateClosed:
		b.resetWindow(now)
	case StateOpen:
		b.expiry = now.Add(b.openTimeout)
	case StateHalfOpen:
		b.expiry = time.Time{}
	}

	metrics.CircuitBreakerState.WithLabelValues(b.name).Set(float64(to))
	logger.L().Warn("circuit breaker state changed",
		zap.String("breaker", b.name),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
