package common

import (
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// IsUUID 檢查字串是否為合法 UUID
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Truncate 截斷字串，用於日誌中的模型輸出預覽
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
