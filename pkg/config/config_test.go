package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("catalog-service")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DB.Host != "localhost" {
		t.Fatalf("expected default db host, got %q", cfg.DB.Host)
	}
	if cfg.DB.DBName != "catalog-service" {
		t.Fatalf("expected db name to default to service name, got %q", cfg.DB.DBName)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Server.Port)
	}
	if cfg.Upload.MaxSizeBytes != 5*1024*1024 {
		t.Fatalf("expected 5MB upload cap, got %d", cfg.Upload.MaxSizeBytes)
	}
	if cfg.Cloudinary.Folder != "products" {
		t.Fatalf("expected default image folder, got %q", cfg.Cloudinary.Folder)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")
	t.Setenv("APP_ENV", "production")
	t.Setenv("UPLOAD_MAX_SIZE_BYTES", "1048576")

	cfg, err := Load("catalog-service")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DB.Host != "db.internal" {
		t.Fatalf("expected env db host, got %q", cfg.DB.Host)
	}
	if cfg.DB.MaxOpenConns != 25 {
		t.Fatalf("expected 25 open conns, got %d", cfg.DB.MaxOpenConns)
	}
	if cfg.DB.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %s", cfg.DB.ConnMaxLifetime)
	}
	if cfg.IsDevelopment() {
		t.Fatal("production env must not report development mode")
	}
	if cfg.Upload.MaxSizeBytes != 1048576 {
		t.Fatalf("expected 1MB upload cap, got %d", cfg.Upload.MaxSizeBytes)
	}
}

func TestGetDSN(t *testing.T) {
	db := DBConfig{
		Host: "localhost", Port: "5432", User: "postgres",
		Password: "password", DBName: "catalog", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=postgres password=password dbname=catalog sslmode=disable"
	if got := db.GetDSN(); got != want {
		t.Fatalf("unexpected DSN: %q", got)
	}
}
