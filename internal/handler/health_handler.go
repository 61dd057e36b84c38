package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker はヘルスチェック対象の疎通確認を定義する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はGET /api/healthのHTTPハンドラー。
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// Check はDBへの疎通を確認して稼働状態を返す。
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.checker.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{OK: false})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{OK: true})
}
