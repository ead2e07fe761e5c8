package post

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
)

// pagination 统一分页元数据
type pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

func newPagination(page, limit, total int) pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return pagination{Current: page, Pages: pages, Total: total}
}

// parsePageQuery 解析 page/limit 查询参数
// page 默认 1；limit 默认 10，上限 100
func parsePageQuery(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return page, limit
}

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

// writePaginated 写入带分页元数据的成功响应
func writePaginated(w http.ResponseWriter, data interface{}, p pagination) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"data":       data,
		"pagination": p,
	})
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
	return prefix + "-" + randomHex(6)
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
