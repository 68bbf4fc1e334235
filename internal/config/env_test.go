package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	env, err := fromViper(v)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if env.AppAddr != ":8080" || env.DBDriver != "mysql" {
		t.Fatalf("unexpected defaults: %+v", env)
	}
	if env.StoreTimeout != 5*time.Second {
		t.Fatalf("expected 5s store timeout, got %v", env.StoreTimeout)
	}
	if env.BookingInitialStatus != "CONFIRMED" {
		t.Fatalf("expected CONFIRMED, got %s", env.BookingInitialStatus)
	}
}

func TestFromViperNormalizes(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DB_DRIVER", " Memory ")
	v.Set("BOOKING_INITIAL_STATUS", "pending_payment")
	v.Set("STORE_TIMEOUT", "1500ms")
	v.Set("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	env, err := fromViper(v)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if env.DBDriver != "memory" {
		t.Fatalf("expected memory driver, got %q", env.DBDriver)
	}
	if env.BookingInitialStatus != "PENDING_PAYMENT" {
		t.Fatalf("expected PENDING_PAYMENT, got %q", env.BookingInitialStatus)
	}
	if env.StoreTimeout != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s, got %v", env.StoreTimeout)
	}
	if got := env.AllowedOrigins(); len(got) != 2 {
		t.Fatalf("expected two origins, got %v", got)
	}
}

func TestDSNSetsLockWaitTimeout(t *testing.T) {
	env := Env{DBUser: "app", DBHost: "db:3306", DBName: "seats", StoreTimeout: 3 * time.Second}
	dsn := env.DSN()
	if !strings.Contains(dsn, "innodb_lock_wait_timeout=3") {
		t.Fatalf("expected lock wait timeout in dsn, got %s", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("expected parseTime in dsn, got %s", dsn)
	}

	env.DBDSN = "custom"
	if env.DSN() != "custom" {
		t.Fatalf("DB_DSN should override")
	}
}
