package notify_sdk

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/pkg/logger"
	"github.com/cydxin/notify-sdk/response"
	"github.com/cydxin/notify-sdk/service"
)

// -------------------- 通知（Notification）相关接口 --------------------

const sseKeepAlive = 25 * time.Second

// GinHandleListNotifications 分页拉取通知
// @Summary 拉取通知
// @Tags 通知
// @Accept json
// @Produce json
// @Param page query int false "页码(默认1)"
// @Param limit query int false "条数(默认50,最大100)"
// @Param onlyUnread query bool false "只看未读"
// @Success 200 {object} response.Response{data=service.NotificationPage}
// @Failure 400 {object} response.Response "参数错误"
// @Security BearerAuth
// @Router /notification/list [get]
func (e *NotifyEngine) GinHandleListNotifications(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	var q service.ListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	page, err := e.NotificationService.List(ctx.Request.Context(), uid, q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(page))
}

// GinHandleUnreadNotifications 未读通知（按时间正序），断线重连后补齐用
// @Summary 未读通知
// @Tags 通知
// @Produce json
// @Param lastEventId query string false "只返回这条之后的未读"
// @Success 200 {object} response.Response{data=[]message.Notification}
// @Security BearerAuth
// @Router /notification/unread [get]
func (e *NotifyEngine) GinHandleUnreadNotifications(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	items, err := e.NotificationService.GetUnreadAfter(ctx.Request.Context(), uid, ctx.Query("lastEventId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(items))
}

// GinHandleUnreadCount 未读数
// @Summary 未读数
// @Tags 通知
// @Produce json
// @Success 200 {object} response.Response{data=map[string]int64} "data.count"
// @Security BearerAuth
// @Router /notification/unread/count [get]
func (e *NotifyEngine) GinHandleUnreadCount(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	cnt, err := e.NotificationService.UnreadCount(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(map[string]int64{"count": cnt}))
}

// GinHandleMarkNotificationRead 标记一条通知已读（幂等）
// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response "不是自己的通知"
// @Failure 404 {object} response.Response "通知不存在"
// @Security BearerAuth
// @Router /notification/{id}/read [post]
func (e *NotifyEngine) GinHandleMarkNotificationRead(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	if err := e.NotificationService.MarkAsRead(ctx.Request.Context(), uid, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(nil))
}

// GinHandleMarkAllNotificationsRead 全部已读
// @Summary 全部已读
// @Tags 通知
// @Produce json
// @Success 200 {object} response.Response{data=map[string]int64} "data.updated"
// @Security BearerAuth
// @Router /notification/read-all [post]
func (e *NotifyEngine) GinHandleMarkAllNotificationsRead(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	n, err := e.NotificationService.MarkAllAsRead(ctx.Request.Context(), uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(map[string]int64{"updated": n}))
}

// GinHandleNotificationStream SSE 推送。
// 带 Last-Event-ID（或 query lastEventId）时先补发这之后的未读，再推实时事件。
// @Summary 通知 SSE 推送
// @Tags 通知
// @Produce text/event-stream
// @Param lastEventId query string false "上次收到的通知ID"
// @Success 200 {string} string "event stream"
// @Security BearerAuth
// @Security QueryToken
// @Router /notification/stream [get]
func (e *NotifyEngine) GinHandleNotificationStream(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	lastID := ctx.GetHeader("Last-Event-ID")
	if lastID == "" {
		lastID = ctx.Query("lastEventId")
	}
	reqCtx := ctx.Request.Context()

	// 先订阅再查补齐，两者之间发布的事件不会丢，重复的按 id 去掉
	sub, err := e.NotificationService.Subscribe(reqCtx, uid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	defer sub.Close()

	var backlog []message.Notification
	if lastID != "" {
		if backlog, err = e.NotificationService.GetUnreadAfter(reqCtx, uid, lastID); err != nil {
			respondError(ctx, err)
			return
		}
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Status(http.StatusOK)

	seen := make(map[string]struct{}, len(backlog))
	ctx.SSEvent(message.WsTypeReady, map[string]string{"userId": uid})
	for _, n := range backlog {
		seen[n.ID] = struct{}{}
		writeSSE(ctx, n)
	}
	ctx.Writer.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-reqCtx.Done():
			return false
		case n, ok := <-sub.C():
			if !ok {
				return false
			}
			if _, dup := seen[n.ID]; dup {
				return true
			}
			writeSSE(ctx, n)
			return true
		case <-keepAlive.C:
			ctx.SSEvent(message.WsTypePing, time.Now().Unix())
			return true
		}
	})
	logger.Debug("sse stream closed", zap.String("user_id", uid), zap.Uint64("dropped", sub.Dropped()))
}

// writeSSE 带 id 的 notification 事件，浏览器断线重连时会带上 Last-Event-ID
func writeSSE(ctx *gin.Context, n message.Notification) {
	_, _ = fmt.Fprintf(ctx.Writer, "id:%s\n", n.ID)
	ctx.SSEvent(message.WsTypeNotification, n)
}

// GinHandleNotificationWS WebSocket 推送（token 可以走 query）
// @Summary 通知 WebSocket
// @Tags 通知
// @Security QueryToken
// @Router /notification/ws [get]
func (e *NotifyEngine) GinHandleNotificationWS(ctx *gin.Context) {
	uid, ok := currentUser(ctx)
	if !ok {
		return
	}
	e.ServeWS(ctx.Writer, ctx.Request, uid)
}
