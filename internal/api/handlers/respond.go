package handlers

import (
	"context"
	"errors"
	"net/http"

	"cookclip/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉為 {error, message} 響應；非 CustomError 一律視為 500
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	resp := common.ErrorResponse{
		Error:   common.ErrCodeInternalError,
		Message: "internal server error",
	}

	if ce, ok := common.AsCustomError(err); ok {
		status = ce.Status
		resp.Error = ce.Code
		resp.Message = ce.Message
	} else if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
		resp.Error = common.ErrCodeGatewayTimeout
		resp.Message = "request timed out"
	}

	// 開發模式才附上原始錯誤
	if gin.IsDebugging() {
		resp.Details = err.Error()
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.String("code", resp.Error),
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetHeader("X-Request-ID")),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求處理失敗", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// BindJSON 解析請求體，失敗時直接回應 400
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		RespondError(c, common.ValidationFailed("invalid request body: "+err.Error()))
		return false
	}
	return true
}
