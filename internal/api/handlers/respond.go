package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/luwei/stocklab/internal/apperr"
)

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondAppError maps a classified error onto an HTTP response.
// 错误信息带失败阶段, 便于前端和排障定位
func respondAppError(w http.ResponseWriter, err error) {
	respondError(w, apperr.HTTPStatus(err), err.Error())
}
