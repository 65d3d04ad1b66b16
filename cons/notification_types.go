package cons

import (
	"database/sql/driver"
	"fmt"
)

// EventKind 通知事件类型（封闭枚举，新增类型需要同时在 service.Registry 里接线）。
type EventKind uint8

const (
	KindUnknown EventKind = iota
	KindFollow            // 关注
	KindLike              // 点赞
	KindComment           // 评论 / 回复
	KindPost              // 新帖子（目前没有接线的工厂）
)

var eventKindNames = [...]string{
	KindUnknown: "",
	KindFollow:  "new_follow",
	KindLike:    "new_like",
	KindComment: "new_comment",
	KindPost:    "new_post",
}

// AllEventKinds 所有已定义的事件类型（不含 KindUnknown）。
var AllEventKinds = []EventKind{KindFollow, KindLike, KindComment, KindPost}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("event_kind(%d)", uint8(k))
}

// Valid 是否是已定义的类型
func (k EventKind) Valid() bool {
	return k > KindUnknown && int(k) < len(eventKindNames)
}

// ParseEventKind 解析线上传输的字符串。
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range AllEventKinds {
		if eventKindNames[k] == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown event kind %q", s)
}

func (k EventKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid event kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	v, err := ParseEventKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Value 落库时存字符串，方便直接查库排查
func (k EventKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid event kind %d", uint8(k))
	}
	return k.String(), nil
}

func (k *EventKind) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	case nil:
		*k = KindUnknown
		return nil
	default:
		return fmt.Errorf("cannot scan %T into EventKind", src)
	}
}

// EntityType 可被通知引用的实体类型
type EntityType string

const (
	EntityUser    EntityType = "user"
	EntityComment EntityType = "comment"
	EntityPost    EntityType = "post"
	EntityGrow    EntityType = "grow"
	EntityPlant   EntityType = "plant"
	EntityPhoto   EntityType = "image" // 照片在存储层叫 image
)

// AllEntityTypes 所有实体类型
var AllEntityTypes = []EntityType{EntityUser, EntityComment, EntityPost, EntityGrow, EntityPlant, EntityPhoto}

func (t EntityType) Valid() bool {
	for _, v := range AllEntityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// 评论所挂靠的父实体类型（comments.entity_type 列的取值）
const (
	CommentableGrow  = "grow"
	CommentablePlant = "plant"
	CommentablePhoto = "photo"
	CommentablePost  = "post"
)

// 总线 topic
const (
	TopicNotification = "notification"
	TopicChatMessage  = "chat_message"
)
