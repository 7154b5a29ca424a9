// Package versioned は (state, version) の組と、versionが一致したときだけ入れ替えるcommitを持つ。
//
// versionは単調増加の論理カウンタ。ローカルの書き込みは Apply（version+1）、
// 別の場所で計算した結果（先の書き込みに対するサーバー応答など）は TryCommit で入れる。
// 間にローカルの書き込みがあれば TryCommit は何もしない。
package versioned

import "sync"

// Value は状態とversionを持つ。並行に使ってよい。
type Value[T any] struct {
	mu      sync.Mutex
	state   T
	version int64
}

// New はversion 0で作る
func New[T any](initial T) *Value[T] {
	return &Value[T]{state: initial}
}

// Load は状態とversionを同時に読む
func (v *Value[T]) Load() (T, int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.version
}

func (v *Value[T]) Version() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Apply は状態をfn(state)に置き換えてversionを1進める。
// fnはロック中に呼ばれるので、vを呼び返さないこと。
func (v *Value[T]) Apply(fn func(T) T) (T, int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = fn(v.state)
	v.version++
	return v.state, v.version
}

// TryCommit はexpectedが現在のversionと一致するときだけnextを入れる。
// versionはどちらの場合も変えない。
func (v *Value[T]) TryCommit(next T, expected int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if expected != v.version {
		return false
	}
	v.state = next
	return true
}

// Restore はstateをローカルの書き込みとして入れる（version+1）。
// 古いversionで飛行中の結果はもうcommitできない。
func (v *Value[T]) Restore(state T) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
	v.version++
	return v.version
}
