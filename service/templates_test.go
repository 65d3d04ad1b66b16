package service

import (
	"context"
	"testing"

	"github.com/cydxin/notify-sdk/cons"
)

func TestTextKey(t *testing.T) {
	cases := []struct {
		kind   cons.EventKind
		entity cons.EntityType
		want   string
	}{
		{cons.KindFollow, cons.EntityUser, "new_follow"},
		{cons.KindLike, cons.EntityPhoto, "new_like_photo"},
		{cons.KindLike, cons.EntityComment, "new_like_comment"},
		{cons.KindLike, cons.EntityUser, "new_like"},
		{cons.KindComment, cons.EntityGrow, "new_comment_grow"},
		{cons.KindPost, cons.EntityPost, "new_post"},
		{cons.KindUnknown, cons.EntityPost, "new_notification"},
	}
	for _, c := range cases {
		if got := TextKey(c.kind, c.entity); got != c.want {
			t.Fatalf("TextKey(%v, %v) = %q, want %q", c.kind, c.entity, got, c.want)
		}
	}
	if got := EntityKey("video"); got != EntityKeyUnknown {
		t.Fatalf("EntityKey(video) = %q", got)
	}
}

type staticTargets map[string][2]string

func (m staticTargets) CommentTarget(_ context.Context, id string) (string, string, error) {
	v, ok := m[id]
	if !ok {
		return "", "", ErrNotFound
	}
	return v[0], v[1], nil
}

func TestHrefBuilder(t *testing.T) {
	b := NewHrefBuilder(staticTargets{
		"c1": {cons.CommentableGrow, "g-1"},
		"c2": {"video", "v-1"},
	})
	ctx := context.Background()

	cases := []struct {
		entity    cons.EntityType
		id        string
		commentID *string
		want      string
	}{
		{cons.EntityUser, "u-a", nil, "/public/profile/u-a"},
		{cons.EntityPost, "p-1", nil, "/public/posts/p-1"},
		{cons.EntityPlant, "pl-1", strp("c9"), "/public/plants/pl-1?commentId=c9"},
		{cons.EntityComment, "c1", strp("c3"), "/public/grows/g-1?commentId=c3"},
		{cons.EntityComment, "c2", nil, "#"},
		{cons.EntityComment, "missing", nil, "#"},
		{"video", "v-1", nil, "#"},
	}
	for _, c := range cases {
		if got := b.Href(ctx, c.entity, c.id, c.commentID); got != c.want {
			t.Fatalf("Href(%s, %s) = %q, want %q", c.entity, c.id, got, c.want)
		}
	}
}
