package extraction

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// NormalizeURL 轉小寫並去除結尾斜線
func NormalizeURL(url string) string {
	return strings.TrimRight(strings.ToLower(url), "/")
}

// Fingerprint FNV-1a 風格的 32-bit 雜湊，輸出不補零的小寫十六進位。
// 以 UTF-16 code unit 逐一計算，乘法用 float64 再截成 uint32，
// 與既有資料庫中 url_hash 的算法逐位元一致（並非標準 FNV-1a）。
func Fingerprint(url string) string {
	h := uint32(fnvOffset32)
	for _, unit := range utf16.Encode([]rune(NormalizeURL(url))) {
		x := int32(h) ^ int32(unit)
		h = uint32(int64(float64(x) * fnvPrime32))
	}
	return strconv.FormatUint(uint64(h), 16)
}
