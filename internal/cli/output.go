package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"storefront/internal/cartsync"
	"storefront/internal/money"
)

type cartJSON struct {
	Lines     []lineJSON `json:"lines"`
	Subtotal  int64      `json:"subtotal"`
	Currency  string     `json:"currency"`
	ItemCount int64      `json:"item_count"`
	Display   string     `json:"display"`
}

type lineJSON struct {
	LineKey   string `json:"line_key"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	StockCap  int64  `json:"stock_cap"`
	LineTotal int64  `json:"line_total"`
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCart(w io.Writer, format string, v cartsync.View) error {
	if format == "json" {
		out := cartJSON{
			Lines:     make([]lineJSON, 0, len(v.Lines)),
			Subtotal:  v.Subtotal,
			Currency:  v.Currency,
			ItemCount: v.ItemCount,
			Display:   money.Format(v.Subtotal, v.Currency),
		}
		for _, l := range v.Lines {
			out.Lines = append(out.Lines, lineJSON{
				LineKey:   l.LineKey,
				ProductID: l.ProductID,
				Title:     l.Title,
				UnitPrice: l.UnitPrice,
				Quantity:  l.Quantity,
				StockCap:  l.StockCap,
				LineTotal: l.LineTotal(),
			})
		}
		return writeJSON(w, out)
	}

	if len(v.Lines) == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tTITLE\tQTY\tPRICE\tTOTAL")
	for _, l := range v.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			l.LineKey, l.Title, l.Quantity, l.StockCap,
			money.Format(l.UnitPrice, v.Currency),
			money.Format(l.LineTotal(), v.Currency),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d item(s), subtotal %s\n", v.ItemCount, money.Format(v.Subtotal, v.Currency))
	return err
}
