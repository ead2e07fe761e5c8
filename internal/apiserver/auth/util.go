package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

// writeJSON 写入 JSON 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess 写入统一成功响应 {success, message?, data}
func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	body := map[string]interface{}{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

// writeError 写入统一错误响应 {success: false, message}
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// writeValidationError 写入校验错误响应，附带逐字段错误列表
func writeValidationError(w http.ResponseWriter, errs []string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"message": "Validation failed",
		"errors":  errs,
	})
}

// generateID 生成带前缀的随机 ID
// 格式：prefix-xxxxxxxxxxxx（prefix + 12 字符 hex）
func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// normalizeEmail 邮箱规范化：去空白 + 小写
// 唯一性按规范化后的值判定
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
