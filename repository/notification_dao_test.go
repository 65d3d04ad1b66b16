package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/cydxin/notify-sdk/cons"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open failed: %v", err)
	}
	return db, mock
}

func TestNotificationDAO_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewNotificationDAO(db)

	mock.ExpectQuery("SELECT \\* FROM `nt_notification` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := dao.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestNotificationDAO_ListByUserEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewNotificationDAO(db)

	// 总数为 0 时不再查列表
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `nt_notification`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

	rows, total, err := dao.ListByUser(context.Background(), "u1", true, 0, 50)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if total != 0 || rows == nil || len(rows) != 0 {
		t.Fatalf("rows=%v total=%d", rows, total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestNotificationDAO_MarkAllRead(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewNotificationDAO(db)

	mock.ExpectExec("UPDATE `nt_notification` SET `read`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := dao.MarkAllRead(context.Background(), "u1")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 3 {
		t.Fatalf("updated=%d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestLookupDAO_EntityOwner(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewLookupDAO(db)

	t.Run("Image", func(t *testing.T) {
		mock.ExpectQuery("SELECT `owner_id` FROM `nt_image` WHERE id = \\?").
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("u1"))

		owner, err := dao.EntityOwner(context.Background(), cons.EntityPhoto, "img-1")
		if err != nil || owner != "u1" {
			t.Fatalf("owner=%q err=%v", owner, err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT `owner_id` FROM `nt_post` WHERE id = \\?").
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

		_, err := dao.EntityOwner(context.Background(), cons.EntityPost, "p-1")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err=%v, want ErrNotFound", err)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		// 不查库
		_, err := dao.EntityOwner(context.Background(), cons.EntityUser, "u1")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err=%v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}
