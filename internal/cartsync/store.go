package cartsync

import (
	"sort"
	"sync"

	"storefront/internal/versioned"
)

// Store はメモリ上のカートの唯一の正。
//
// 書き込みは ApplyLocal（楽観的変更、version+1）と CommitIfCurrent（サーバー応答、
// versionが一致したときだけ反映）の2つだけ。ロールバック用の保存は1段のみ。
// pending はUIのローディング表示用で、整合性の判定には使わない。
type Store struct {
	state *versioned.Value[Snapshot]

	mu      sync.Mutex
	saved   *saved
	pending map[string]struct{}
	subs    map[int]chan struct{}
	nextSub int
}

type saved struct {
	snap Snapshot
}

// View はUI向けの読み取り専用コピー。
type View struct {
	Lines     []Line
	Subtotal  int64
	Currency  string
	ItemCount int64
	Version   int64
	Pending   []string
}

// NewStore は空カートで作る（version 0）
func NewStore(currency string) *Store {
	return &Store{
		state:   versioned.New(Snapshot{Lines: []Line{}, Currency: currency}),
		pending: make(map[string]struct{}),
		subs:    make(map[int]chan struct{}),
	}
}

// ApplyLocal はfnで新しいスナップショットを作って入れ替え、versionを1進める。
// 戻り値は変更後のversion（呼び出し側がサーバー応答の照合に使う）。
func (s *Store) ApplyLocal(fn func(Snapshot) Snapshot) int64 {
	_, ver := s.state.Apply(func(cur Snapshot) Snapshot {
		next := fn(cur.Clone())
		if next.Currency == "" {
			next.Currency = cur.Currency
		}
		return next.normalize()
	})
	s.publish()
	return ver
}

// CommitIfCurrent はexpectedが現在のversionと一致するときだけnextを入れる。
// 一致しない（古い応答）ならfalseで、状態は変えない。
func (s *Store) CommitIfCurrent(next Snapshot, expected int64) bool {
	cur, _ := s.state.Load()
	next = next.Clone()
	if next.Currency == "" {
		next.Currency = cur.Currency
	}
	ok := s.state.TryCommit(next.normalize(), expected)
	if ok {
		s.publish()
	}
	return ok
}

// TakeSnapshot は現在のスナップショットを保存する。前の保存は上書き。
func (s *Store) TakeSnapshot() {
	snap, _ := s.state.Load()

	s.mu.Lock()
	s.saved = &saved{snap: snap.Clone()}
	s.mu.Unlock()
}

// HasSnapshot はロールバック先があるか。
func (s *Store) HasSnapshot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved != nil
}

// Rollback は保存したスナップショットに戻して保存を消す。保存が無ければ何もしない。
//
// versionは保存時の値には戻さず、1進める。
// 戻すと同じ番号が再利用され、飛行中の古い応答が誤ってcommitできてしまう。
func (s *Store) Rollback() bool {
	s.mu.Lock()
	sv := s.saved
	s.saved = nil
	s.mu.Unlock()

	if sv == nil {
		return false
	}
	s.state.Restore(sv.snap)
	s.publish()
	return true
}

// ClearSnapshot は戻さずに保存だけ捨てる（commit成功後）
func (s *Store) ClearSnapshot() {
	s.mu.Lock()
	s.saved = nil
	s.mu.Unlock()
}

// Reset はカートを空にする（ログアウト等）。ローカル変更なのでversionは進む。
func (s *Store) Reset() int64 {
	s.mu.Lock()
	s.saved = nil
	s.pending = make(map[string]struct{})
	s.mu.Unlock()

	return s.ApplyLocal(func(cur Snapshot) Snapshot {
		return Snapshot{Lines: []Line{}, Currency: cur.Currency}
	})
}

func (s *Store) MarkPending(key string) {
	s.mu.Lock()
	_, had := s.pending[key]
	s.pending[key] = struct{}{}
	s.mu.Unlock()

	if !had {
		s.publish()
	}
}

func (s *Store) ClearPending(key string) {
	s.mu.Lock()
	_, had := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()

	if had {
		s.publish()
	}
}

func (s *Store) IsPending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// ===== 読み取り =====

func (s *Store) Current() Snapshot {
	snap, _ := s.state.Load()
	return snap.Clone()
}

func (s *Store) Version() int64 {
	return s.state.Version()
}

func (s *Store) Line(key string) (Line, bool) {
	snap, _ := s.state.Load()
	return snap.Line(key)
}

func (s *Store) Lines() []Line {
	return s.Current().Lines
}

func (s *Store) Subtotal() int64 {
	snap, _ := s.state.Load()
	return snap.Subtotal()
}

func (s *Store) Currency() string {
	snap, _ := s.state.Load()
	return snap.Currency
}

func (s *Store) ItemCount() int64 {
	snap, _ := s.state.Load()
	return snap.ItemCount()
}

// View は状態とversionを同時に読んだコピーを返す。
func (s *Store) View() View {
	snap, ver := s.state.Load()

	s.mu.Lock()
	pending := make([]string, 0, len(s.pending))
	for k := range s.pending {
		pending = append(pending, k)
	}
	s.mu.Unlock()
	sort.Strings(pending)

	snap = snap.Clone()
	return View{
		Lines:     snap.Lines,
		Subtotal:  snap.Subtotal(),
		Currency:  snap.Currency,
		ItemCount: snap.ItemCount(),
		Version:   ver,
		Pending:   pending,
	}
}

// Subscribe は変更通知のチャネルを返す。
// 通知はまとめられる（バッファ1）ので、受け取ったらView()で最新を読むこと。
// 戻り値のfuncで購読解除。
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// publish はブロックしない
func (s *Store) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
