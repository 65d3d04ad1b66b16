package notify_sdk

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cydxin/notify-sdk/middleware"
	"github.com/cydxin/notify-sdk/response"
	"github.com/cydxin/notify-sdk/service"
)

// respondError 把服务层错误映射成 HTTP 状态 + 业务码。
// 其余错误按约定返回 200 + CodeInternalError，并上报 Sentry。
func respondError(ctx *gin.Context, err error) {
	var ve *service.ValidationError
	var ce *service.ConfigurationError
	switch {
	case errors.As(err, &ve):
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, ve.Error()))
	case errors.As(err, &ce):
		middleware.CaptureError(ctx, err)
		ctx.JSON(http.StatusInternalServerError, response.Error(response.CodeConfigError, ce.Error()))
	case errors.Is(err, service.ErrNotFound):
		ctx.JSON(http.StatusNotFound, response.Error(response.CodeNotFound, "not found"))
	case errors.Is(err, service.ErrForbidden):
		ctx.JSON(http.StatusForbidden, response.Error(response.CodePermissionDeny, "permission denied"))
	default:
		_ = ctx.Error(err)
		middleware.CaptureError(ctx, err)
		ctx.JSON(http.StatusOK, response.Error(response.CodeInternalError, err.Error()))
	}
}

// currentUser 取鉴权中间件写入的 user_id
func currentUser(ctx *gin.Context) (string, bool) {
	uid := middleware.UserID(ctx)
	if uid == "" {
		ctx.JSON(http.StatusUnauthorized, response.Error(response.CodeTokenInvalid, "user_id not found"))
		return "", false
	}
	return uid, true
}
