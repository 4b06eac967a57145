// Package tracker 浏览器端学习会话追踪的服务端/CLI 实现。
//
// 一个 Tracker 对应一次学习会话：Open 上报 session_start，之后缓冲幻灯片浏览、
// 交互与完成事件，由 Flush 批量发送，Close 做最后一次发送并上报 session_end。
// 追踪调用从不等待网络，发送失败只记录日志。
package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultCloseTimeout = 2 * time.Second

type Option func(*Tracker)

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// WithClock 测试中注入时钟
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func WithCloseTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.closeTimeout = d
		}
	}
}

type view struct {
	slideID     uint
	moduleID    uint
	lessonID    uint
	completed   bool
	seconds     int
	scrollDepth float64
}

type completion struct {
	slideID  uint
	lessonID uint
}

type visibleSlide struct {
	view
	since time.Time
	// 当前幻灯片的完成事件要等它的浏览结算后再发送
	completion *completion
}

type Tracker struct {
	submitter    Submitter
	log          *zap.Logger
	now          func() time.Time
	closeTimeout time.Duration

	mu           sync.Mutex
	opened       bool
	closed       bool
	sessionID    uint
	visible      *visibleSlide
	views        []view
	interactions []Interaction
	completions  []completion
	stopAuto     chan struct{}
	autoDone     chan struct{}
	autoCancel   context.CancelFunc

	// 同一时间只有一个 flush 在发送，容量为 1
	flushSem chan struct{}
}

func New(submitter Submitter, opts ...Option) *Tracker {
	t := &Tracker{
		submitter:    submitter,
		log:          zap.NewNop(),
		now:          time.Now,
		closeTimeout: DefaultCloseTimeout,
		flushSem:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open 上报 session_start，失败时 tracker 保持未激活，之后的追踪调用都是空操作
func (t *Tracker) Open(ctx context.Context, courseID uint, totalSlides int) {
	t.mu.Lock()
	if t.opened || t.closed {
		t.mu.Unlock()
		return
	}
	t.opened = true
	t.mu.Unlock()

	res, err := t.submitter.Submit(ctx, Event{
		Type:        EventSessionStart,
		CourseID:    courseID,
		TotalSlides: &totalSlides,
	})
	if err != nil {
		t.log.Warn("session start failed", zap.Uint("courseId", courseID), zap.Error(err))
		return
	}
	if res == nil || res.SessionID == 0 {
		t.log.Warn("session start returned no session id", zap.Uint("courseId", courseID))
		return
	}

	t.mu.Lock()
	closed := t.closed
	if !closed {
		t.sessionID = res.SessionID
	}
	t.mu.Unlock()

	if closed {
		// Close 先于 session_start 返回，这里补发 session_end
		endCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.closeTimeout)
		defer cancel()
		if _, err := t.submitter.Submit(endCtx, Event{Type: EventSessionEnd, SessionID: res.SessionID}); err != nil {
			t.log.Warn("session end failed", zap.Uint("sessionId", res.SessionID), zap.Error(err))
			return
		}
		t.log.Debug("session closed before start returned", zap.Uint("sessionId", res.SessionID))
		return
	}
	t.log.Debug("session started", zap.Uint("sessionId", res.SessionID))
}

// SessionID 未激活时为 0
func (t *Tracker) SessionID() uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func (t *Tracker) activeLocked() bool {
	return t.sessionID != 0 && !t.closed
}

// TrackSlideView 把上一张可见幻灯片停留的时间结算给它，并切换当前可见幻灯片
func (t *Tracker) TrackSlideView(slideID, moduleID, lessonID uint, completed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.activeLocked() {
		return
	}
	now := t.now()
	t.settleVisibleLocked(now)
	t.visible = &visibleSlide{
		view: view{
			slideID:   slideID,
			moduleID:  moduleID,
			lessonID:  lessonID,
			completed: completed,
		},
		since: now,
	}
}

func (t *Tracker) settleVisibleLocked(now time.Time) {
	if t.visible == nil {
		return
	}
	v := t.visible.view
	if elapsed := now.Sub(t.visible.since); elapsed > 0 {
		v.seconds = int(elapsed / time.Second)
	}
	t.views = append(t.views, v)
	if c := t.visible.completion; c != nil {
		t.completions = append(t.completions, *c)
	}
	t.visible = nil
}

// UpdateScrollDepth 记录当前可见幻灯片的滚动深度（0-100，取最大值），随其浏览一起上报
func (t *Tracker) UpdateScrollDepth(slideID uint, pct float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.activeLocked() || t.visible == nil || t.visible.slideID != slideID {
		return
	}
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	if pct > t.visible.scrollDepth {
		t.visible.scrollDepth = pct
	}
}

func (t *Tracker) TrackInteraction(eventType, eventName string, data map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.activeLocked() {
		return
	}
	t.interactions = append(t.interactions, Interaction{
		EventType: eventType,
		EventName: eventName,
		EventData: data,
	})
}

// MarkSlideCompleted 在该幻灯片最近一次浏览之后发送 slide_complete
func (t *Tracker) MarkSlideCompleted(slideID, lessonID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.activeLocked() {
		return
	}
	c := completion{slideID: slideID, lessonID: lessonID}
	if t.visible != nil && t.visible.slideID == slideID {
		t.visible.completed = true
		t.visible.completion = &c
		return
	}
	t.completions = append(t.completions, c)
}

// Flush 发送已结算的浏览、交互（合并为一个请求）与完成事件
// 缓冲区在锁内交换，发送期间新的追踪调用不会阻塞；等待上一次 flush 时遵守 ctx
func (t *Tracker) Flush(ctx context.Context) {
	select {
	case t.flushSem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-t.flushSem }()

	t.mu.Lock()
	sessionID := t.sessionID
	views, interactions, completions := t.views, t.interactions, t.completions
	t.views, t.interactions, t.completions = nil, nil, nil
	t.mu.Unlock()

	if sessionID == 0 {
		return
	}
	t.send(ctx, sessionID, views, interactions, completions)
}

func (t *Tracker) send(ctx context.Context, sessionID uint, views []view, interactions []Interaction, completions []completion) {
	for _, v := range views {
		seconds := v.seconds
		e := Event{
			Type:      EventSlideView,
			SessionID: sessionID,
			SlideID:   v.slideID,
			ModuleID:  v.moduleID,
			LessonID:  v.lessonID,
			TimeSpent: &seconds,
			Completed: v.completed,
		}
		if v.scrollDepth > 0 {
			depth := v.scrollDepth
			e.ScrollDepth = &depth
		}
		_, err := t.submitter.Submit(ctx, e)
		if err != nil {
			t.log.Warn("slide view dropped", zap.Uint("sessionId", sessionID), zap.Uint("slideId", v.slideID), zap.Error(err))
		}
	}

	if len(interactions) > 0 {
		res, err := t.submitter.Submit(ctx, Event{
			Type:      EventInteraction,
			SessionID: sessionID,
			Events:    interactions,
		})
		if err != nil {
			t.log.Warn("interactions dropped", zap.Uint("sessionId", sessionID), zap.Int("count", len(interactions)), zap.Error(err))
		} else if res != nil && res.Inserted < len(interactions) {
			t.log.Warn("interactions partially rejected",
				zap.Uint("sessionId", sessionID),
				zap.Int("sent", len(interactions)),
				zap.Int("inserted", res.Inserted),
			)
		}
	}

	for _, c := range completions {
		_, err := t.submitter.Submit(ctx, Event{
			Type:      EventSlideComplete,
			SessionID: sessionID,
			SlideID:   c.slideID,
			LessonID:  c.lessonID,
		})
		if err != nil {
			t.log.Warn("slide complete dropped", zap.Uint("sessionId", sessionID), zap.Uint("slideId", c.slideID), zap.Error(err))
		}
	}
}

// StartAutoFlush 定时 Flush，Close 时停止；重复调用无效
func (t *Tracker) StartAutoFlush(interval time.Duration) {
	if interval <= 0 {
		return
	}
	t.mu.Lock()
	if !t.activeLocked() || t.stopAuto != nil {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	autoCtx, cancel := context.WithCancel(context.Background())
	t.stopAuto, t.autoDone, t.autoCancel = stop, done, cancel
	t.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(autoCtx, interval)
				t.Flush(ctx)
				cancel()
			}
		}
	}()
}

// Close 停止定时发送，结算当前幻灯片，最后 Flush 并上报 session_end
// 整体（包括等待进行中的定时 flush）受 close timeout 约束；未 Open 或重复 Close 都是空操作
func (t *Tracker) Close(ctx context.Context) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	sessionID := t.sessionID
	stop, done, cancelAuto := t.stopAuto, t.autoDone, t.autoCancel
	t.stopAuto, t.autoDone, t.autoCancel = nil, nil, nil
	if sessionID != 0 {
		t.settleVisibleLocked(t.now())
	}
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, t.closeTimeout)
	defer cancel()

	if stop != nil {
		close(stop)
		select {
		case <-done:
		case <-ctx.Done():
			t.log.Warn("auto flush still running at close deadline", zap.Uint("sessionId", sessionID))
		}
		cancelAuto()
	}
	if sessionID == 0 {
		return
	}

	t.Flush(ctx)
	if _, err := t.submitter.Submit(ctx, Event{Type: EventSessionEnd, SessionID: sessionID}); err != nil {
		t.log.Warn("session end failed", zap.Uint("sessionId", sessionID), zap.Error(err))
		return
	}
	t.log.Debug("session closed", zap.Uint("sessionId", sessionID))
}
