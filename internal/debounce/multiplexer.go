// Package debounce は、キーごとに独立したトレーリングデバウンス。
// 同じキーへの連続呼び出しは、ウィンドウ内の最後の1回だけが実行される。
package debounce

import (
	"sync"
	"time"
)

// Multiplexer はキー => タイマーを持つ。
type Multiplexer struct {
	mu     sync.Mutex
	timers map[string]*entry
}

type entry struct {
	timer *time.Timer
}

func New() *Multiplexer {
	return &Multiplexer{timers: make(map[string]*entry)}
}

// Schedule は既存タイマーを止めて、window後にfnを実行するタイマーを張り直す。
func (m *Multiplexer) Schedule(key string, fn func(), window time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.timers[key]; ok {
		old.timer.Stop()
	}

	e := &entry{}
	e.timer = time.AfterFunc(window, func() {
		m.mu.Lock()
		// 張り直された古いタイマーなら何もしない
		if cur, ok := m.timers[key]; !ok || cur != e {
			m.mu.Unlock()
			return
		}
		delete(m.timers, key)
		m.mu.Unlock()

		fn()
	})
	m.timers[key] = e
}

// Cancel はキーのタイマーを止める。未登録キーは何もしない（falseを返す）。
func (m *Multiplexer) Cancel(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.timers[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(m.timers, key)
	return true
}

// CancelAll は全タイマーを止める（終了時）
func (m *Multiplexer) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.timers {
		e.timer.Stop()
		delete(m.timers, key)
	}
}

// Pending はキーに未発火のタイマーがあるか。
func (m *Multiplexer) Pending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[key]
	return ok
}

func (m *Multiplexer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
