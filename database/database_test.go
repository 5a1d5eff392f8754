package database

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/skillsenselab/ingest/logger"
)

type widget struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: ":memory:", LogLevel: "silent"}, logger.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 5 {
		t.Errorf("pool defaults = %d/%d, want 25/5", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}},
		{name: "empty dsn", mutate: func(c *Config) { c.DSN = "" }, wantErr: true},
		{name: "idle exceeds open", mutate: func(c *Config) { c.MaxIdleConns = 50 }, wantErr: true},
		{name: "bad lifetime", mutate: func(c *Config) { c.ConnMaxLifetime = "soon" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{DSN: ":memory:"}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpen_AndMigrate(t *testing.T) {
	db := openTestDB(t)
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	if err := db.GormDB.Create(&widget{ID: "w1", Name: "one"}).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	var got widget
	if err := db.GormDB.First(&got, "id = ?", "w1").Error; err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if got.Name != "one" {
		t.Errorf("Name = %q, want %q", got.Name, "one")
	}
}

func TestWithTransaction_Commit(t *testing.T) {
	db := openTestDB(t)
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	err := db.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&widget{ID: "w1"}).Error
	})
	if err != nil {
		t.Fatalf("WithTransaction() error = %v", err)
	}

	var count int64
	db.GormDB.Model(&widget{}).Count(&count)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := openTestDB(t)
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	err := db.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&widget{ID: "w1"}).Error; err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var count int64
	db.GormDB.Model(&widget{}).Count(&count)
	if count != 0 {
		t.Errorf("count = %d, want 0 after rollback", count)
	}
}
