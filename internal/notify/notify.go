// Package notify はカートエンジンの通知先。
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Sink は通知の受け先（cartsync.Notifierと同じ形）
type Sink interface {
	NotifyError(message string)
	NotifySuccess(message string)
}

// Logger は通知をzapに流す（CLI、サーバー側のジョブ向け）
type Logger struct {
	log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log.Named("notify")}
}

func (n *Logger) NotifyError(message string) {
	n.log.Error(message)
}

func (n *Logger) NotifySuccess(message string) {
	n.log.Info(message)
}

// Kind は通知の種類
type Kind string

const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

type Message struct {
	Kind Kind
	Text string
}

// Recorder は受け取った通知を順に保持する。次の通知先があればそこにも渡す。
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	next Sink
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Tee は受け取った通知をnextにも流すRecorderを作る。
func Tee(next Sink) *Recorder {
	return &Recorder{next: next}
}

func (r *Recorder) NotifyError(message string) {
	r.add(Message{Kind: KindError, Text: message})
	if r.next != nil {
		r.next.NotifyError(message)
	}
}

func (r *Recorder) NotifySuccess(message string) {
	r.add(Message{Kind: KindSuccess, Text: message})
	if r.next != nil {
		r.next.NotifySuccess(message)
	}
}

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

// Messages はコピーを返す
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Errors はエラー通知の本文だけ
func (r *Recorder) Errors() []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Kind == KindError {
			out = append(out, m.Text)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}
