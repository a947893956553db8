package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"faculty-sub/backend/config"
	"faculty-sub/backend/internal/model"
)

// TokenStore 推送目标查询（由 repository.UserRepository 实现）
type TokenStore interface {
	ListPushTargetsExcept(ctx context.Context, excludedID uint) ([]model.PushTarget, error)
	GetPushTarget(ctx context.Context, id uint) (*model.PushTarget, error)
	ClearPushToken(ctx context.Context, token string) (int64, error)
}

type audience string

const (
	audienceAllExcept audience = "all_except"
	audienceUser      audience = "user"
)

type job struct {
	audience audience
	userID   uint // all_except 时为被排除的用户，user 时为接收人
	n        Notification
}

// Dispatcher 通知扇出分发器
//
// NotifyAllExcept / NotifyUser 只负责入队，立即返回；后台 worker 解析 Token、分批并发投递。
// 队列满或已关闭时丢弃通知并记录，业务操作永远不因通知而失败或阻塞。
type Dispatcher struct {
	cfg     config.PushConfig
	store   TokenStore
	gateway Gateway
	metrics *Metrics
	logger  *zap.Logger

	queue  chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher 创建分发器，需调用 Start 启动 worker
func NewDispatcher(cfg config.PushConfig, store TokenStore, gateway Gateway, metrics *Metrics, logger *zap.Logger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:     cfg,
		store:   store,
		gateway: gateway,
		metrics: metrics,
		logger:  logger.Named("notify"),
		queue:   make(chan job, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start 启动 cfg.Workers 个 worker
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.logger.Info("通知分发器已启动",
		zap.Int("workers", d.cfg.Workers),
		zap.Int("queue_size", d.cfg.QueueSize),
	)
}

// Shutdown 停止接收新通知并等待队列排空；ctx 到期后中断进行中的投递
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

// NotifyAllExcept 通知除 excludedUserID 之外的所有教职工
func (d *Dispatcher) NotifyAllExcept(excludedUserID uint, n Notification) {
	d.enqueue(job{audience: audienceAllExcept, userID: excludedUserID, n: n})
}

// NotifyUser 通知单个用户
func (d *Dispatcher) NotifyUser(userID uint, n Notification) {
	d.enqueue(job{audience: audienceUser, userID: userID, n: n})
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.intents.WithLabelValues(string(j.audience), "dropped").Inc()
		d.logger.Warn("分发器已关闭，丢弃通知", zap.String("audience", string(j.audience)), zap.Uint("user_id", j.userID))
		return
	}

	select {
	case d.queue <- j:
		d.metrics.intents.WithLabelValues(string(j.audience), "queued").Inc()
		d.metrics.queueDepth.Inc()
	default:
		d.metrics.intents.WithLabelValues(string(j.audience), "dropped").Inc()
		d.logger.Warn("通知队列已满，丢弃通知", zap.String("audience", string(j.audience)), zap.Uint("user_id", j.userID))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.metrics.queueDepth.Dec()
		d.deliver(d.ctx, j)
	}
}

// deliver 同步执行一次通知：解析接收人 → 过滤 Token → 分批投递
func (d *Dispatcher) deliver(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("通知投递发生 panic", zap.Any("panic", r))
		}
	}()

	tokens, err := d.resolve(ctx, j)
	if err != nil {
		d.logger.Error("解析推送接收人失败",
			zap.String("audience", string(j.audience)),
			zap.Uint("user_id", j.userID),
			zap.Error(err),
		)
		return
	}
	if len(tokens) == 0 {
		d.logger.Debug("无可用推送 Token", zap.String("audience", string(j.audience)), zap.Uint("user_id", j.userID))
		return
	}

	msgs := make([]Message, 0, len(tokens))
	for _, t := range tokens {
		msgs = append(msgs, Message{To: t, Title: j.n.Title, Body: j.n.Body, Data: j.n.Data})
	}
	d.sendAll(ctx, msgs)
}

func (d *Dispatcher) resolve(ctx context.Context, j job) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	var targets []model.PushTarget
	switch j.audience {
	case audienceAllExcept:
		list, err := d.store.ListPushTargetsExcept(ctx, j.userID)
		if err != nil {
			return nil, err
		}
		targets = list
	case audienceUser:
		target, err := d.store.GetPushTarget(ctx, j.userID)
		if err != nil {
			return nil, err
		}
		targets = []model.PushTarget{*target}
	}

	seen := make(map[string]bool, len(targets))
	tokens := make([]string, 0, len(targets))
	for _, t := range targets {
		if j.audience == audienceAllExcept && t.UserID == j.userID {
			continue
		}
		if !ValidToken(t.PushToken) || seen[t.PushToken] {
			continue
		}
		seen[t.PushToken] = true
		tokens = append(tokens, t.PushToken)
	}
	return tokens, nil
}

// sendAll 按 BatchSize 切分，批次之间并发（上限 MaxConcurrency），批次间无顺序保证
func (d *Dispatcher) sendAll(ctx context.Context, msgs []Message) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxConcurrency)

	for start := 0; start < len(msgs); start += d.cfg.BatchSize {
		end := start + d.cfg.BatchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		batch := msgs[start:end]
		g.Go(func() error {
			d.sendBatch(gctx, batch)
			return nil
		})
	}
	_ = g.Wait()
}

// sendBatch 整批失败时指数退避重试，逐条失败不重试
func (d *Dispatcher) sendBatch(ctx context.Context, batch []Message) {
	backoff := d.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		tickets, err := d.callGateway(ctx, batch)
		if err == nil {
			d.handleTickets(ctx, tickets)
			return
		}

		if attempt >= d.cfg.MaxRetries || ctx.Err() != nil {
			d.metrics.messages.WithLabelValues(outcomeGatewayFailed).Add(float64(len(batch)))
			d.logger.Error("推送网关调用失败，放弃该批次",
				zap.Int("batch_size", len(batch)),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return
		}

		d.logger.Warn("推送网关调用失败，准备重试",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		backoff *= 2
	}
}

func (d *Dispatcher) callGateway(ctx context.Context, batch []Message) ([]Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	tickets, err := d.gateway.Send(ctx, batch)
	d.metrics.latency.Observe(time.Since(start).Seconds())
	return tickets, err
}

func (d *Dispatcher) handleTickets(ctx context.Context, tickets []Ticket) {
	for _, t := range tickets {
		switch {
		case t.Err == nil:
			d.metrics.messages.WithLabelValues(outcomeSent).Inc()
		case errors.Is(t.Err, ErrDeviceNotRegistered):
			d.metrics.messages.WithLabelValues(outcomeUnregistered).Inc()
			d.logger.Info("设备 Token 已失效，清除", zap.String("token", maskToken(t.To)))
			d.clearToken(ctx, t.To)
		default:
			d.metrics.messages.WithLabelValues(outcomeRejected).Inc()
			d.logger.Warn("推送被网关拒绝", zap.String("token", maskToken(t.To)), zap.Error(t.Err))
		}
	}
}

func (d *Dispatcher) clearToken(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	if _, err := d.store.ClearPushToken(ctx, token); err != nil {
		d.logger.Error("清除失效 Token 失败", zap.String("token", maskToken(token)), zap.Error(err))
	}
}

// maskToken 日志中只保留 Token 前 25 个字符
func maskToken(token string) string {
	if len(token) <= 25 {
		return token
	}
	return token[:25] + "..."
}
