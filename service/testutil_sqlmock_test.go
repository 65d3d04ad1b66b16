package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cydxin/notify-sdk/cons"
	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/repository"
)

// newMockDB 用 go-sqlmock 创建一个可被 GORM 使用的 *gorm.DB。
// mysql dialector 只是为了让 GORM 生成的 SQL/占位符风格稳定（? 占位符），不会连接真实 MySQL。
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	// SkipDefaultTransaction: 避免 GORM 默认在每次写操作开启事务，简化 sqlmock 断言
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqldb, SkipInitializeWithVersion: true}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		_ = sqldb.Close()
		t.Fatalf("gorm.Open: %v", err)
	}

	return db, mock, sqldb
}

// newSQLiteDB 内存 sqlite，已建表。单连接保证所有查询落在同一个内存库。
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqldb.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func strp(s string) *string { return &s }

// fakeLookup 内存版归属/评论树
type fakeLookup struct {
	owners   map[string]string // entityType:entityID -> owner
	comments map[string]repository.CommentNode
	calls    int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{owners: map[string]string{}, comments: map[string]repository.CommentNode{}}
}

func (f *fakeLookup) own(t cons.EntityType, id, owner string) *fakeLookup {
	f.owners[string(t)+":"+id] = owner
	return f
}

func (f *fakeLookup) comment(id, author string, parent *string) *fakeLookup {
	f.comments[id] = repository.CommentNode{ID: id, AuthorID: author, ParentID: parent}
	return f.own(cons.EntityComment, id, author)
}

func (f *fakeLookup) EntityOwner(_ context.Context, t cons.EntityType, id string) (string, error) {
	f.calls++
	o, ok := f.owners[string(t)+":"+id]
	if !ok {
		return "", ErrNotFound
	}
	return o, nil
}

func (f *fakeLookup) CommentNode(_ context.Context, id string) (repository.CommentNode, error) {
	f.calls++
	n, ok := f.comments[id]
	if !ok {
		return repository.CommentNode{}, ErrNotFound
	}
	return n, nil
}
