package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cydxin/notify-sdk/bus"
	"github.com/cydxin/notify-sdk/models"
)

func TestChatService_SendAndList(t *testing.T) {
	db := newSQLiteDB(t)
	ps := bus.New()
	s := NewChatService(&Service{DB: db, Bus: ps})
	ctx := context.Background()
	db.Create(&models.User{ID: "u-a", Name: "Alice", Username: "alice"})

	sub, err := s.Subscribe(ctx, "general")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	for _, text := range []string{"hello", "world"} {
		if _, err := s.SendMessage(ctx, "general", "u-a", text, json.RawMessage(`{"k":1}`)); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}
	if _, err := s.SendMessage(ctx, "random", "u-a", "elsewhere", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if len(sub.C()) != 2 {
		t.Fatalf("expected 2 live messages, got %d", len(sub.C()))
	}
	live := <-sub.C()
	if live.Content != "hello" || live.Sender.Username == nil || *live.Sender.Username != "alice" {
		t.Fatalf("unexpected live message: %+v", live)
	}

	list, err := s.ListMessages(ctx, "general", 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(list))
	}
	if list[0].Sender.Name == nil || *list[0].Sender.Name != "Alice" {
		t.Fatalf("sender not loaded: %+v", list[0].Sender)
	}
}

func TestChatService_Validation(t *testing.T) {
	s := NewChatService(&Service{DB: newSQLiteDB(t), Bus: bus.New()})
	ctx := context.Background()

	cases := []struct {
		channel, sender, content string
		extra                    json.RawMessage
	}{
		{"", "u-a", "hi", nil},
		{"general", "", "hi", nil},
		{"general", "u-a", "   ", nil},
		{"general", "u-a", "hi", json.RawMessage(`{bad`)},
	}
	for _, c := range cases {
		if _, err := s.SendMessage(ctx, c.channel, c.sender, c.content, c.extra); !IsValidation(err) {
			t.Fatalf("%+v: expected ValidationError, got %v", c, err)
		}
	}
}
