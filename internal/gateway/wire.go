package gateway

import "storefront/internal/cartsync"

type errorResponse struct {
	Error string `json:"error"`
}

type addRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type updateRequest struct {
	Quantity int64 `json:"quantity"`
}

type productResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
	Stock int64  `json:"stock"`
}

type lineResponse struct {
	LineKey   string `json:"line_key"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	StockCap  int64  `json:"stock_cap"`
}

// subtotalは使わない（小計は常に明細から計算する）
type cartResponse struct {
	Lines    []lineResponse `json:"lines"`
	Currency string         `json:"currency"`
}

func (r cartResponse) snapshot() cartsync.Snapshot {
	lines := make([]cartsync.Line, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, cartsync.Line{
			LineKey:   l.LineKey,
			ProductID: l.ProductID,
			Title:     l.Title,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			StockCap:  l.StockCap,
		})
	}
	return cartsync.Snapshot{Lines: lines, Currency: r.Currency}
}
