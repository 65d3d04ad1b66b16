package notify_sdk

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/response"
	"github.com/cydxin/notify-sdk/service"
)

// InternalTokenHeader 内部事件接口的鉴权 header
const InternalTokenHeader = "X-Internal-Token"

// CreateEventReq 业务事件（点赞/关注/评论发生后由业务服务调用）
type CreateEventReq struct {
	EventKind cons.EventKind `json:"eventKind" swaggertype:"string" example:"new_like"`
	service.FactoryData
}

// CreateEventResp 创建结果
type CreateEventResp struct {
	Created        int      `json:"created"`
	RecipientCount int      `json:"recipientCount"`
	IDs            []string `json:"ids"`
}

func internalAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(InternalTokenHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(response.CodeTokenInvalid, "invalid internal token"))
			return
		}
		c.Next()
	}
}

// GinHandleCreateEvent 为一个业务事件创建并推送通知
// @Summary 创建通知事件（内部接口）
// @Tags 通知
// @Accept json
// @Produce json
// @Param X-Internal-Token header string true "内部接口密钥"
// @Param req body CreateEventReq true "事件"
// @Success 200 {object} response.Response{data=CreateEventResp}
// @Failure 400 {object} response.Response "参数错误"
// @Failure 500 {object} response.Response "事件类型没有接线"
// @Router /notification/events [post]
func (e *NotifyEngine) GinHandleCreateEvent(ctx *gin.Context) {
	var req CreateEventReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	if !req.EventKind.Valid() {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, "eventKind is required"))
		return
	}
	res, err := e.NotificationService.CreateNotification(ctx.Request.Context(), req.EventKind, req.FactoryData)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ids := make([]string, 0, len(res.Created))
	for _, n := range res.Created {
		ids = append(ids, n.ID)
	}
	ctx.JSON(http.StatusOK, response.Success(CreateEventResp{
		Created:        len(res.Created),
		RecipientCount: res.RecipientCount,
		IDs:            ids,
	}))
}
