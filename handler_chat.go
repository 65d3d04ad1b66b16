package notify_sdk

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cydxin/notify-sdk/response"
)

// -------------------- 频道消息 --------------------

type SendChatMessageReq struct {
	Content string          `json:"content" binding:"required"`
	Extra   json.RawMessage `json:"extra,omitempty" swaggertype:"object"`
}

// GinHandleSendChatMessage 发送频道消息
// @Summary 发送频道消息
// @Tags 频道
// @Accept json
// @Produce json
// @Param channel path string true "频道ID"
// @Param req body SendChatMessageReq true "消息"
// @Success 200 {object} response.Response{data=message.ChatMessage}
// @Failure 400 {object} response.Response "参数错误"
// @Security BearerAuth
// @Router /chat/{channel}/messages [post]
func (e *NotifyEngine) GinHandleSendChatMessage(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req SendChatMessageReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	msg, err := e.ChatService.SendMessage(ctx.Request.Context(), ctx.Param("channel"), uid, req.Content, req.Extra)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(msg))
}

// GinHandleListChatMessages 频道最近消息
// @Summary 频道消息列表
// @Tags 频道
// @Produce json
// @Param channel path string true "频道ID"
// @Param limit query int false "条数(默认50,最大100)"
// @Success 200 {object} response.Response{data=[]message.ChatMessage}
// @Security BearerAuth
// @Router /chat/{channel}/messages [get]
func (e *NotifyEngine) GinHandleListChatMessages(ctx *gin.Context) {
	if _, ok := currentUser(ctx); !ok {
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	list, err := e.ChatService.ListMessages(ctx.Request.Context(), ctx.Param("channel"), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(list))
}

// GinHandleChatWS 频道 WebSocket：推送频道消息，也可以直接发 chat_message 帧
// @Summary 频道 WebSocket
// @Tags 频道
// @Param channel path string true "频道ID"
// @Security QueryToken
// @Router /chat/{channel}/ws [get]
func (e *NotifyEngine) GinHandleChatWS(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	e.WsServer.ServeChannel(ctx.Writer, ctx.Request, uid, ctx.Param("channel"), e.ChatService)
}
