package notify_sdk

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cydxin/notify-sdk/middleware"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/response"
)

// -------------------- 用户（User）相关接口 --------------------

// SyncUserReq 业务方同步用户展示信息
type SyncUserReq struct {
	ID       string `json:"id" binding:"required,max=64"`
	Name     string `json:"name" binding:"max=100"`
	Username string `json:"username" binding:"max=50"`
	Image    string `json:"image" binding:"max=500"`
}

// IssueTokenReq 为用户签发 redis token
type IssueTokenReq struct {
	UserID     string `json:"userId" binding:"required,max=64"`
	TTLSeconds int    `json:"ttlSeconds"`
}

const defaultTokenTTL = 24 * time.Hour

// GinHandleSyncUser 新增或更新用户（内部接口）
// @Summary 同步用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param X-Internal-Token header string true "内部接口密钥"
// @Param req body SyncUserReq true "用户"
// @Success 200 {object} response.Response
// @Router /user/sync [post]
func (e *NotifyEngine) GinHandleSyncUser(ctx *gin.Context) {
	var req SyncUserReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	u := &models.User{ID: req.ID, Name: req.Name, Username: req.Username, Image: req.Image}
	if err := e.UserService.SyncUser(ctx.Request.Context(), u); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleIssueToken 签发 token（内部接口，需要 RDB）
// @Summary 签发 token
// @Tags 用户
// @Accept json
// @Produce json
// @Param X-Internal-Token header string true "内部接口密钥"
// @Param req body IssueTokenReq true "用户"
// @Success 200 {object} response.Response{data=map[string]string} "data.token"
// @Router /user/token [post]
func (e *NotifyEngine) GinHandleIssueToken(ctx *gin.Context) {
	if e.AuthService == nil {
		ctx.JSON(http.StatusInternalServerError, response.Error(response.CodeConfigError, "token store is not configured"))
		return
	}
	var req IssueTokenReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	ttl := defaultTokenTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	token, err := e.AuthService.Login(ctx.Request.Context(), req.UserID, ttl)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(map[string]string{"token": token}))
}

// GinHandleLogout 注销当前 token
// @Summary 注销
// @Tags 用户
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /user/logout [post]
func (e *NotifyEngine) GinHandleLogout(ctx *gin.Context) {
	if _, ok := currentUser(ctx); !ok {
		return
	}
	if e.AuthService != nil {
		if err := e.AuthService.RevokeToken(ctx.Request.Context(), ctx.GetString(middleware.ContextTokenKey)); err != nil {
			respondError(ctx, err)
			return
		}
	}
	ctx.JSON(http.StatusOK, response.Success(nil))
}
