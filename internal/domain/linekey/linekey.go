// Package linekey はカート明細のキー導出。
//
// クライアント（cartsync）とバックエンド（usecase）の両方が同じ関数を使うので、
// 楽観的に作った明細とサーバー確定の明細が往復なしで同じキーになる。
package linekey

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const prefix = "ln_"

// Of は商品IDから明細キーを作る。
func Of(productID int64) string {
	sum := xxhash.Sum64String("product:" + strconv.FormatInt(productID, 10))
	s := strconv.FormatUint(sum, 16)
	// 16桁固定
	if len(s) < 16 {
		s = strings.Repeat("0", 16-len(s)) + s
	}
	return prefix + s
}

// Valid はキーの形式チェック（PATCH/DELETEのパス用）
func Valid(key string) bool {
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	hex := key[len(prefix):]
	if len(hex) != 16 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 64)
	return err == nil
}
