package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/cydxin/notify-sdk/models"
	"github.com/cydxin/notify-sdk/pkg/database"
)

// Usage:
//
//	NOTIFY_DATABASE_DRIVER=mysql
//	NOTIFY_DATABASE_DSN=user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=true&loc=Local
//	go run ./scripts/print_gorm_schema.go
//
// 打印每张表 GORM 解析出的字段和当前方言下的 SQL 类型，方便核对实际库结构。
func main() {
	driver := os.Getenv("NOTIFY_DATABASE_DRIVER")
	dsn := os.Getenv("NOTIFY_DATABASE_DSN")
	if dsn == "" {
		log.Fatal("NOTIFY_DATABASE_DSN is empty")
	}
	if p := os.Getenv("NOTIFY_DATABASE_TABLE_PREFIX"); p != "" {
		models.SetTablePrefix(p)
	}

	dialector, err := database.Dialector(driver, dsn)
	if err != nil {
		log.Fatalf("dialector: %v", err)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	for _, m := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			log.Fatalf("parse %T: %v", m, err)
		}
		fmt.Printf("=== %s (exists=%v) ===\n", stmt.Schema.Table, db.Migrator().HasTable(stmt.Schema.Table))
		for _, f := range stmt.Schema.Fields {
			if f.DBName == "" {
				continue
			}
			fmt.Printf("%-20s %-24s tag=%s\n", f.DBName, db.Dialector.DataTypeOf(f), f.Tag.Get("gorm"))
		}
		for _, idx := range indexNames(stmt.Schema) {
			fmt.Printf("index %s\n", idx)
		}
	}

	// 实际库里的列（跨方言）
	for _, m := range models.All() {
		cols, err := db.Migrator().ColumnTypes(m)
		if err != nil {
			fmt.Printf("column types %T: %v\n", m, err)
			continue
		}
		fmt.Printf("--- db columns %T ---\n", m)
		for _, c := range cols {
			nullable, _ := c.Nullable()
			fmt.Printf("%s\t%s\tnull=%v\n", c.Name(), c.DatabaseTypeName(), nullable)
		}
	}
}

func indexNames(s *schema.Schema) []string {
	out := make([]string, 0)
	for _, idx := range s.ParseIndexes() {
		out = append(out, idx.Name)
	}
	sort.Strings(out)
	return out
}
