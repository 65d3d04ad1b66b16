package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
)

func seedNotifications(t *testing.T, s *NotificationService, userID string, n int) []models.Notification {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		rec := models.Notification{
			ID:         fmt.Sprintf("%s-n%02d", userID, i),
			UserID:     userID,
			ActorID:    "u-actor",
			Type:       cons.KindLike,
			EntityType: cons.EntityPhoto,
			EntityID:   fmt.Sprintf("img-%d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.DB.Create(&rec).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
		out = append(out, rec)
	}
	return out
}

func TestNotificationService_ListPaging(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	s.DB.Create(&models.User{ID: "u-actor", Name: "Actor", Username: "actor"})
	seedNotifications(t, s, "u-a", 5)
	seedNotifications(t, s, "u-other", 2)

	page, err := s.List(ctx, "u-a", ListQuery{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 5 || page.TotalPages != 3 || page.NextPage == nil || *page.NextPage != 2 {
		t.Fatalf("unexpected page meta: %+v", page)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "u-a-n04" || page.Items[1].ID != "u-a-n03" {
		t.Fatalf("expected newest first, got %+v", page.Items)
	}
	it := page.Items[0]
	if it.Text != "new_like_photo" || it.EntityKey != "entity_photo" || it.Href != "/public/photos/img-4" {
		t.Fatalf("unexpected decoration: %+v", it)
	}
	if it.Actor.Username == nil || *it.Actor.Username != "actor" {
		t.Fatalf("actor not loaded: %+v", it.Actor)
	}

	last, err := s.List(ctx, "u-a", ListQuery{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(last.Items) != 1 || last.NextPage != nil {
		t.Fatalf("unexpected last page: %+v", last)
	}
}

func TestNotificationService_ListLimitBounds(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()

	for _, limit := range []int{-1, 101} {
		if _, err := s.List(ctx, "u-a", ListQuery{Limit: limit}); !IsValidation(err) {
			t.Fatalf("limit %d: expected ValidationError, got %v", limit, err)
		}
	}
	page, err := s.List(ctx, "u-a", ListQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Limit != DefaultPageLimit || page.Page != 1 || page.TotalCount != 0 || len(page.Items) != 0 {
		t.Fatalf("unexpected empty page: %+v", page)
	}
}

func TestNotificationService_ListOnlyUnread(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	recs := seedNotifications(t, s, "u-a", 3)
	if err := s.MarkAsRead(ctx, "u-a", recs[1].ID); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}

	page, err := s.List(ctx, "u-a", ListQuery{OnlyUnread: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("expected 2 unread, got %d", page.TotalCount)
	}
	for _, it := range page.Items {
		if it.Read {
			t.Fatalf("read item in unread listing: %+v", it)
		}
	}
}

func TestNotificationService_MarkAsReadIdempotent(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	recs := seedNotifications(t, s, "u-a", 2)

	for i := 0; i < 2; i++ {
		if err := s.MarkAsRead(ctx, "u-a", recs[0].ID); err != nil {
			t.Fatalf("MarkAsRead #%d: %v", i, err)
		}
	}
	var got models.Notification
	s.DB.First(&got, "id = ?", recs[0].ID)
	if !got.Read {
		t.Fatalf("expected read")
	}
	cnt, err := s.UnreadCount(ctx, "u-a")
	if err != nil || cnt != 1 {
		t.Fatalf("expected 1 unread, got %d, %v", cnt, err)
	}
}

func TestNotificationService_MarkAsReadOwnership(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	recs := seedNotifications(t, s, "u-a", 1)

	if err := s.MarkAsRead(ctx, "u-b", recs[0].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := s.MarkAsRead(ctx, "u-a", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	seedNotifications(t, s, "u-a", 3)
	seedNotifications(t, s, "u-b", 1)

	n, err := s.MarkAllAsRead(ctx, "u-a")
	if err != nil || n != 3 {
		t.Fatalf("expected 3 updated, got %d, %v", n, err)
	}
	if cnt, _ := s.UnreadCount(ctx, "u-a"); cnt != 0 {
		t.Fatalf("expected 0 unread, got %d", cnt)
	}
	if cnt, _ := s.UnreadCount(ctx, "u-b"); cnt != 1 {
		t.Fatalf("other user must be untouched, got %d", cnt)
	}
}

func TestNotificationService_GetUnreadAfter(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	recs := seedNotifications(t, s, "u-a", 4)

	all, err := s.GetUnread(ctx, "u-a")
	if err != nil || len(all) != 4 || all[0].ID != recs[0].ID {
		t.Fatalf("GetUnread: %d items, err %v", len(all), err)
	}

	after, err := s.GetUnreadAfter(ctx, "u-a", recs[1].ID)
	if err != nil {
		t.Fatalf("GetUnreadAfter: %v", err)
	}
	if len(after) != 2 || after[0].ID != recs[2].ID || after[1].ID != recs[3].ID {
		t.Fatalf("unexpected catch-up: %+v", after)
	}

	unknown, err := s.GetUnreadAfter(ctx, "u-a", "missing")
	if err != nil || len(unknown) != 4 {
		t.Fatalf("unknown last id should replay all unread, got %d, %v", len(unknown), err)
	}
}

func TestNotificationService_GetUnreadAfterSameTimestamp(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"zzz", "aaa"} {
		if err := s.DB.Create(&models.Notification{
			ID: id, UserID: "u-a", ActorID: "u-b", Type: cons.KindLike,
			EntityType: cons.EntityPhoto, EntityID: "img-1", CreatedAt: at,
		}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	after, err := s.GetUnreadAfter(ctx, "u-a", "zzz")
	if err != nil {
		t.Fatalf("GetUnreadAfter: %v", err)
	}
	if len(after) != 1 || after[0].ID != "aaa" {
		t.Fatalf("record sharing the last timestamp must be replayed, got %+v", after)
	}
}

func TestNotificationService_UnreadOrderFollowsCreation(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id := newID()
		if err := s.DB.Create(&models.Notification{
			ID: id, UserID: "u-a", ActorID: "u-b", Type: cons.KindLike,
			EntityType: cons.EntityPhoto, EntityID: fmt.Sprintf("img-%d", i), CreatedAt: at,
		}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, id)
	}

	all, err := s.GetUnread(ctx, "u-a")
	if err != nil || len(all) != len(ids) {
		t.Fatalf("GetUnread: %d items, err %v", len(all), err)
	}
	for i := range ids {
		if all[i].ID != ids[i] {
			t.Fatalf("position %d: got %s, want %s", i, all[i].ID, ids[i])
		}
	}

	after, err := s.GetUnreadAfter(ctx, "u-a", ids[9])
	if err != nil {
		t.Fatalf("GetUnreadAfter: %v", err)
	}
	// 同一时间戳的全部返回（除了 lastEventID 本身），由调用方按 id 去重
	if len(after) != len(ids)-1 {
		t.Fatalf("expected %d items, got %d", len(ids)-1, len(after))
	}
}

func TestNotificationService_CommentHref(t *testing.T) {
	s, _ := newTestNotificationService(t)
	ctx := context.Background()
	s.DB.Create(&models.Comment{ID: "c1", UserID: "u-a", EntityType: cons.CommentablePhoto, EntityID: "img-9"})
	s.DB.Create(&models.Notification{
		ID: "n1", UserID: "u-a", ActorID: "u-b", Type: cons.KindComment,
		EntityType: cons.EntityComment, EntityID: "c1", CommentID: strp("c2"), CreatedAt: time.Now(),
	})

	page, err := s.List(ctx, "u-a", ListQuery{})
	if err != nil || len(page.Items) != 1 {
		t.Fatalf("List: %+v, %v", page, err)
	}
	it := page.Items[0]
	if it.Href != "/public/photos/img-9?commentId=c2" || it.Text != "new_comment_comment" {
		t.Fatalf("unexpected item: %+v", it)
	}
}
