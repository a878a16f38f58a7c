package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CacheKey 对请求参数计算 sha256，作为缓存文件名
func CacheKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}
