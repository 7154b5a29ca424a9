package cartsync

import (
	"context"

	"storefront/internal/domain/linekey"
)

// Line はカートの1明細（1商品）。
// 金額は最小通貨単位（円、セント）の整数。
type Line struct {
	LineKey   string
	ProductID int64
	Title     string
	UnitPrice int64
	Quantity  int64
	StockCap  int64
}

// LineTotal = UnitPrice × Quantity
func (l Line) LineTotal() int64 {
	return l.UnitPrice * l.Quantity
}

// Snapshot はカート全体。
// 小計はLinesから毎回計算するので、キャッシュ値がずれることはない。
type Snapshot struct {
	Lines    []Line
	Currency string
}

// Subtotal は全明細のLineTotalの合計。
func (s Snapshot) Subtotal() int64 {
	var total int64
	for _, l := range s.Lines {
		total += l.LineTotal()
	}
	return total
}

// ItemCount は数量の合計。
func (s Snapshot) ItemCount() int64 {
	var n int64
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Line はキーで明細を探す。
func (s Snapshot) Line(key string) (Line, bool) {
	for _, l := range s.Lines {
		if l.LineKey == key {
			return l, true
		}
	}
	return Line{}, false
}

// Clone はLinesをコピーする（呼び出し側での書き換えが共有されないように）
func (s Snapshot) Clone() Snapshot {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	return Snapshot{Lines: lines, Currency: s.Currency}
}

// normalize は数量0以下の明細を落とし、キー重複は後勝ちで1つにする。
func (s Snapshot) normalize() Snapshot {
	out := Snapshot{Lines: make([]Line, 0, len(s.Lines)), Currency: s.Currency}
	index := make(map[string]int, len(s.Lines))
	for _, l := range s.Lines {
		if l.Quantity <= 0 {
			continue
		}
		if i, ok := index[l.LineKey]; ok {
			out.Lines[i] = l
			continue
		}
		index[l.LineKey] = len(out.Lines)
		out.Lines = append(out.Lines, l)
	}
	return out
}

// Product はaddItemに渡す商品レコード。
type Product struct {
	ID        int64
	Title     string
	UnitPrice int64
	StockCap  int64
}

// LineKey は商品の明細キー（サーバーと同じ導出）
func (p Product) LineKey() string {
	return linekey.Of(p.ID)
}

// Gateway はカートの正本を持つバックエンドへの4操作。
// どれも成功時はカート全体を返す。
type Gateway interface {
	FetchCart(ctx context.Context) (Snapshot, error)
	AddLine(ctx context.Context, productID int64, quantity int64) (Snapshot, error)
	UpdateLine(ctx context.Context, lineKey string, quantity int64) (Snapshot, error)
	RemoveLine(ctx context.Context, lineKey string) (Snapshot, error)
}

// Notifier はユーザーに見える通知（トースト等）。
type Notifier interface {
	NotifyError(message string)
	NotifySuccess(message string)
}
