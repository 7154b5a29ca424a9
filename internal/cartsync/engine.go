package cartsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/debounce"
)

const (
	DefaultDebounceWindow = 500 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
)

// Options はEngineの設定。ゼロ値はデフォルトに置き換える。
type Options struct {
	Currency       string
	DebounceWindow time.Duration
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Engine はカート操作の入口（楽観的更新 → 通信 → 照合）。
//
// ローカル部分（検証、スナップショット、楽観的反映、version取得）はe.muの中で一気に行い、
// 通信はゴルーチンで行う。応答は取得したversionが今も一致するときだけ反映する。
// 失敗したら保存したスナップショットに戻して通知する。
type Engine struct {
	gw       Gateway
	notifier Notifier
	log      *zap.Logger

	store     *Store
	debouncer *debounce.Multiplexer
	window    time.Duration
	timeout   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	idle      *sync.Cond
	inflight  int // 送信中 + デバウンス待ち
	scheduled map[string]*queuedUpdate
	seq       uint64
	closed    bool
}

// デバウンス待ちの数量更新
type queuedUpdate struct {
	gen      uint64
	quantity int64
	expected int64
}

// New はGatewayとNotifierを受け取ってEngineを作る。
func New(gw Gateway, notifier Notifier, opts Options) *Engine {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		gw:        gw,
		notifier:  notifier,
		log:       opts.Logger.Named("cartsync"),
		store:     NewStore(opts.Currency),
		debouncer: debounce.New(),
		window:    opts.DebounceWindow,
		timeout:   opts.RequestTimeout,
		ctx:       ctx,
		cancel:    cancel,
		scheduled: make(map[string]*queuedUpdate),
	}
	e.idle = sync.NewCond(&e.mu)
	return e
}

// Store は読み取り用（UIはここからView/Subscribeする）
func (e *Engine) Store() *Store {
	return e.store
}

// Load はサーバーのカートを取得して基準として入れる。
// 取得中にローカル変更があった場合は、その変更を優先して応答を捨てる。
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	expected := e.store.Version()
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	snap, err := e.gw.FetchCart(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	ok := e.store.CommitIfCurrent(snap, expected)
	e.mu.Unlock()

	if !ok {
		e.log.Debug("discarded stale fetch", zap.Int64("expected_version", expected))
	}
	return nil
}

// AddItem は商品を追加する。同じ商品の明細があれば数量を加算する。
// 在庫上限はここでは見ない（追加の可否はサーバーが決める）。
func (e *Engine) AddItem(p Product, quantity int64) error {
	if p.ID <= 0 {
		return e.reject(ErrInvalidProduct)
	}
	if quantity < 1 {
		return e.reject(ErrInvalidQuantity)
	}
	key := p.LineKey()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	// 数量更新がデバウンス待ちなら、そこに合算して1回の更新で送る
	if line, ok := e.store.Line(key); ok {
		if _, queued := e.scheduled[key]; queued {
			e.setQuantityLocked(line, line.Quantity+quantity)
			e.mu.Unlock()
			return nil
		}
	}
	e.store.TakeSnapshot()
	ver := e.store.ApplyLocal(func(s Snapshot) Snapshot {
		for i := range s.Lines {
			if s.Lines[i].LineKey == key {
				s.Lines[i].Quantity += quantity
				return s
			}
		}
		s.Lines = append(s.Lines, Line{
			LineKey:   key,
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: p.UnitPrice,
			Quantity:  quantity,
			StockCap:  p.StockCap,
		})
		return s
	})
	e.store.MarkPending(key)
	e.inflight++
	e.mu.Unlock()

	go func() {
		defer e.done()
		e.send("add", key, ver, func(ctx context.Context) (Snapshot, error) {
			return e.gw.AddLine(ctx, p.ID, quantity)
		})
	}()
	return nil
}

// IncrementItem は数量+1。在庫上限なら通信せずに弾く。
func (e *Engine) IncrementItem(key string) error {
	e.mu.Lock()
	line, err := e.lineLocked(key)
	if err == nil && line.Quantity >= line.StockCap {
		err = ErrStockLimit
	}
	if err == nil {
		e.setQuantityLocked(line, line.Quantity+1)
	}
	e.mu.Unlock()

	return e.reject(err)
}

// DecrementItem は数量-1。1のときは0にせず削除にする。
func (e *Engine) DecrementItem(key string) error {
	e.mu.Lock()
	line, err := e.lineLocked(key)
	if err == nil {
		if line.Quantity <= 1 {
			e.removeLocked(key)
		} else {
			e.setQuantityLocked(line, line.Quantity-1)
		}
	}
	e.mu.Unlock()

	return e.reject(err)
}

// SetQuantity は数量を指定値にする（1〜在庫上限）。
// 通信はキーごとにデバウンスされ、最後の値だけが送られる。
func (e *Engine) SetQuantity(key string, quantity int64) error {
	e.mu.Lock()
	line, err := e.lineLocked(key)
	if err == nil && (quantity < 1 || quantity > line.StockCap) {
		err = ErrInvalidQuantity
	}
	if err == nil && quantity != line.Quantity {
		e.setQuantityLocked(line, quantity)
	}
	e.mu.Unlock()

	return e.reject(err)
}

// RemoveItem は明細を削除する。デバウンス待ちの数量更新は取り消す。
func (e *Engine) RemoveItem(key string) error {
	e.mu.Lock()
	_, err := e.lineLocked(key)
	if err == nil {
		e.removeLocked(key)
	}
	e.mu.Unlock()

	return e.reject(err)
}

// Clear はローカルのカートを空にする（ログアウト等）。サーバーは呼ばない。
// 飛行中の応答はversionが合わなくなるので捨てられる。
func (e *Engine) Clear() {
	e.mu.Lock()
	for key := range e.scheduled {
		e.cancelQueuedLocked(key)
	}
	e.store.Reset()
	e.mu.Unlock()
}

// Flush はデバウンス待ちの更新を今すぐ送る。
func (e *Engine) Flush() {
	e.mu.Lock()
	keys := make([]string, 0, len(e.scheduled))
	for key := range e.scheduled {
		keys = append(keys, key)
	}
	for _, key := range keys {
		q := e.scheduled[key]
		e.debouncer.Cancel(key)
		go e.fire(key, q.gen)
	}
	e.mu.Unlock()
}

// Wait は送信済み・デバウンス待ちの通信がすべて照合し終わるまで待つ。
// 操作と並行して呼んでもよい（その時点で0件になった瞬間に戻る）。
func (e *Engine) Wait() {
	e.mu.Lock()
	for e.inflight > 0 {
		e.idle.Wait()
	}
	e.mu.Unlock()
}

// Close はデバウンス待ちを全部取り消し、飛行中の通信もキャンセルして終わるのを待つ。
// キャンセルされた通信は通知しない。
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for key := range e.scheduled {
		e.cancelQueuedLocked(key)
	}
	e.debouncer.CancelAll()
	e.mu.Unlock()

	e.cancel()
	e.Wait()
}

// ===== 内部 =====

func (e *Engine) lineLocked(key string) (Line, error) {
	if e.closed {
		return Line{}, ErrClosed
	}
	line, ok := e.store.Line(key)
	if !ok {
		return Line{}, ErrUnknownLine
	}
	return line, nil
}

// setQuantityLocked は楽観的に数量を変えて、通信をデバウンスに積む。
func (e *Engine) setQuantityLocked(line Line, quantity int64) {
	key := line.LineKey

	// 連打の途中状態でロールバック先を上書きしない
	if !e.store.IsPending(key) {
		e.store.TakeSnapshot()
	}
	ver := e.store.ApplyLocal(func(s Snapshot) Snapshot {
		for i := range s.Lines {
			if s.Lines[i].LineKey == key {
				s.Lines[i].Quantity = quantity
			}
		}
		return s
	})
	e.store.MarkPending(key)

	q, ok := e.scheduled[key]
	if !ok {
		q = &queuedUpdate{}
		e.scheduled[key] = q
		e.inflight++
	}
	e.seq++
	q.gen = e.seq
	q.quantity = quantity
	q.expected = ver

	gen := q.gen
	e.debouncer.Schedule(key, func() { e.fire(key, gen) }, e.window)
}

// fire はデバウンス満了（またはFlush）で呼ばれる。
// 取り消し・張り直し済みの世代なら何もしない（件数は取り消した側が減らす）。
func (e *Engine) fire(key string, gen uint64) {
	e.mu.Lock()
	q, ok := e.scheduled[key]
	if !ok || q.gen != gen {
		e.mu.Unlock()
		return
	}
	delete(e.scheduled, key)
	e.mu.Unlock()

	defer e.done()
	quantity := q.quantity
	e.send("update", key, q.expected, func(ctx context.Context) (Snapshot, error) {
		return e.gw.UpdateLine(ctx, key, quantity)
	})
}

func (e *Engine) removeLocked(key string) {
	e.cancelQueuedLocked(key)

	e.store.TakeSnapshot()
	ver := e.store.ApplyLocal(func(s Snapshot) Snapshot {
		lines := s.Lines[:0]
		for _, l := range s.Lines {
			if l.LineKey != key {
				lines = append(lines, l)
			}
		}
		s.Lines = lines
		return s
	})
	e.store.MarkPending(key)
	e.inflight++

	go func() {
		defer e.done()
		e.send("remove", key, ver, func(ctx context.Context) (Snapshot, error) {
			return e.gw.RemoveLine(ctx, key)
		})
	}()
}

// cancelQueuedLocked は未送信の数量更新を取り消す。未登録キーなら何もしない。
func (e *Engine) cancelQueuedLocked(key string) {
	if _, ok := e.scheduled[key]; !ok {
		return
	}
	e.debouncer.Cancel(key)
	delete(e.scheduled, key)
	e.doneLocked()
}

func (e *Engine) done() {
	e.mu.Lock()
	e.doneLocked()
	e.mu.Unlock()
}

func (e *Engine) doneLocked() {
	e.inflight--
	if e.inflight == 0 {
		e.idle.Broadcast()
	}
}

// send は通信して結果を照合する。
func (e *Engine) send(op, key string, expected int64, call func(ctx context.Context) (Snapshot, error)) {
	ctx, cancel := context.WithTimeout(e.ctx, e.timeout)
	defer cancel()

	snap, err := call(ctx)
	e.reconcile(op, key, expected, snap, err)
}

func (e *Engine) reconcile(op, key string, expected int64, snap Snapshot, err error) {
	log := e.log.With(zap.String("op", op), zap.String("line_key", key), zap.Int64("expected_version", expected))

	e.mu.Lock()
	if err != nil {
		// 本当の失敗は、他の楽観的変更があってもロールバックする。
		// 同じ明細の未送信の更新はロールバック前の数量なので捨てる
		e.store.Rollback()
		e.cancelQueuedLocked(key)
		e.clearPendingLocked(key)
		closed := e.closed
		e.mu.Unlock()

		if closed && errors.Is(err, context.Canceled) {
			log.Debug("request canceled on close")
			return
		}
		log.Warn("cart sync failed, rolled back", zap.Error(err))
		e.notifier.NotifyError(MsgSyncFailed)
		return
	}

	committed := e.store.CommitIfCurrent(snap, expected)
	if committed {
		e.store.ClearSnapshot()
	}
	e.clearPendingLocked(key)
	current := e.store.Version()
	e.mu.Unlock()

	if committed {
		log.Debug("committed server cart")
	} else {
		log.Debug("discarded stale response", zap.Int64("current_version", current))
	}
}

// 次の更新がデバウンス待ちなら、ローディング表示は残す
func (e *Engine) clearPendingLocked(key string) {
	if _, queued := e.scheduled[key]; queued {
		return
	}
	e.store.ClearPending(key)
}

// reject は検証エラーを通知に変える。
func (e *Engine) reject(err error) error {
	if err == nil || errors.Is(err, ErrClosed) {
		return err
	}
	e.log.Debug("rejected locally", zap.Error(err))
	e.notifier.NotifyError(userMessage(err))
	return err
}
