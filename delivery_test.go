package notify_sdk

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cydxin/notify-sdk/client"
	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/service"
)

func createLike(t *testing.T, e *NotifyEngine, imageID string) string {
	t.Helper()
	res, err := e.NotificationService.CreateNotification(context.Background(), cons.KindLike, service.FactoryData{
		ActorID: "u-b", EntityType: cons.EntityPhoto, EntityID: imageID,
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("created=%d, want 1", len(res.Created))
	}
	return res.Created[0].ID
}

func newTestServer(t *testing.T) (*NotifyEngine, *httptest.Server) {
	t.Helper()
	e, r := newTestEngine(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return e, srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestWebsocket_CatchUpLiveAndReadAck(t *testing.T) {
	e, srv := newTestServer(t)
	missed := createLike(t, e, "img-1")

	c := client.New(
		client.NewWebsocketTransport(wsURL(srv, "/api/v1/notification/ws"), "tok-a"),
		client.WithCatchUp(client.NewHTTPCatchUp(srv.URL+"/api/v1", "tok-a")),
	)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	waitFor(t, "pending", func() bool { return c.Status() == client.StatusPending })
	waitFor(t, "catch-up", func() bool { return c.UnreadCount() == 1 })
	if got := c.Notifications()[0].ID; got != missed {
		t.Fatalf("catch-up id=%s, want %s", got, missed)
	}
	if n := e.WsServer.Connections("u-a"); n != 1 {
		t.Fatalf("connections=%d, want 1", n)
	}

	live := createLike(t, e, "img-2")
	waitFor(t, "live notification", func() bool { return c.UnreadCount() == 2 })
	if g := c.Grouped(); len(g.Like) != 2 || len(g.Follow) != 0 {
		t.Fatalf("unexpected grouping: %+v", g)
	}

	// u-b 不应该收到 u-a 的通知
	other := client.New(client.NewWebsocketTransport(wsURL(srv, "/api/v1/notification/ws"), "tok-b"))
	if err := other.Connect(context.Background()); err != nil {
		t.Fatalf("Connect other: %v", err)
	}
	defer other.Disconnect()
	waitFor(t, "other pending", func() bool { return other.Status() == client.StatusPending })
	createLike(t, e, "img-1")
	waitFor(t, "third notification", func() bool { return c.UnreadCount() == 3 })
	if other.UnreadCount() != 0 {
		t.Fatalf("foreign notification delivered")
	}

	if err := c.MarkAsRead(live); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if c.UnreadCount() != 2 {
		t.Fatalf("local unread=%d, want 2", c.UnreadCount())
	}
	waitFor(t, "server read ack", func() bool {
		n, err := e.NotificationService.UnreadCount(context.Background(), "u-a")
		return err == nil && n == 2
	})

	c.Disconnect()
	if c.Status() != client.StatusIdle {
		t.Fatalf("status=%s after disconnect", c.Status())
	}
	waitFor(t, "server unregister", func() bool { return e.WsServer.Connections("u-a") == 0 })
}

func TestWebsocket_ChannelChat(t *testing.T) {
	e, srv := newTestServer(t)

	tr := client.NewWebsocketTransport(wsURL(srv, "/api/v1/chat/room-1/ws"), "tok-b")
	stream, err := tr.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer stream.Close()

	env, err := stream.Recv()
	if err != nil || env.Type != "ready" {
		t.Fatalf("first frame: %+v %v", env, err)
	}

	if _, err := e.ChatService.SendMessage(context.Background(), "room-1", "u-a", "hi", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	env, err = stream.Recv()
	if err != nil || env.Type != "chat_message" {
		t.Fatalf("chat frame: %+v %v", env, err)
	}
	if !strings.Contains(string(env.Data), `"content":"hi"`) {
		t.Fatalf("unexpected payload: %s", env.Data)
	}
}

func TestWebsocket_HandshakeUnauthorized(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t)

	_, err := client.NewWebsocketTransport(wsURL(srv, "/api/v1/notification/ws"), "bad").Dial(context.Background())
	var te *client.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if got := client.Classify(te).Class; got != client.ClassSessionExpired {
		t.Fatalf("class=%s, want session_expired", got)
	}
}

func TestSSE_BacklogThenLive(t *testing.T) {
	e, srv := newTestServer(t)

	seen := createLike(t, e, "img-1")
	time.Sleep(5 * time.Millisecond)
	missed := createLike(t, e, "img-2")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/notification/stream", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", "Bearer tok-a")
	req.Header.Set("Last-Event-ID", seen)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content-type=%q", ct)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	nextID := func() string {
		t.Helper()
		timeout := time.After(3 * time.Second)
		for {
			select {
			case l, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed")
				}
				if id, found := strings.CutPrefix(l, "id:"); found {
					return id
				}
			case <-timeout:
				t.Fatalf("timeout waiting for event id")
			}
		}
	}

	if got := nextID(); got != missed {
		t.Fatalf("backlog id=%s, want %s (already seen %s)", got, missed, seen)
	}

	// 订阅在 backlog 之前建立，之后的事件实时推送
	live := createLike(t, e, "img-1")
	if got := nextID(); got != live {
		t.Fatalf("live id=%s, want %s", got, live)
	}
	cancel()
}

func TestMigrateTablePrefix(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	prefix := models.TablePrefix()

	if err := db.Exec("CREATE TABLE legacy_notification (id varchar(36) PRIMARY KEY)").Error; err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if err := db.Exec("INSERT INTO legacy_notification (id) VALUES ('n1')").Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	// 新表已存在的不覆盖
	if err := db.Exec("CREATE TABLE legacy_user (id varchar(64) PRIMARY KEY)").Error; err != nil {
		t.Fatalf("create legacy user: %v", err)
	}
	if err := db.Exec("CREATE TABLE " + prefix + "user (id varchar(64) PRIMARY KEY)").Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := migrateTablePrefix(db, "legacy_", prefix); err != nil {
		t.Fatalf("migrateTablePrefix: %v", err)
	}

	m := db.Migrator()
	if m.HasTable("legacy_notification") || !m.HasTable(prefix+"notification") {
		t.Fatalf("notification table not renamed")
	}
	var count int64
	if err := db.Table(prefix + "notification").Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("rows after rename: %d %v", count, err)
	}
	if !m.HasTable("legacy_user") {
		t.Fatalf("legacy_user should be kept when target exists")
	}

	if err := migrateTablePrefix(db, prefix, prefix); err != nil {
		t.Fatalf("same prefix: %v", err)
	}
}

func TestIsValidTableName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want bool
	}{
		{"nt_notification", true},
		{"", false},
		{"nt_notification;drop", false},
		{strings.Repeat("a", 64), false},
	}
	for _, tt := range tests {
		if got := isValidTableName(tt.name); got != tt.want {
			t.Errorf("isValidTableName(%q)=%v, want %v", tt.name, got, tt.want)
		}
	}
}
