package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestDSN(t *testing.T) {
	cfg := defaultClientConfig()
	for _, opt := range []ClientOption{
		WithHost("ch.internal"),
		WithPort(9440),
		WithDatabase("signalforge"),
		WithCredentials("writer", "p@ss"),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(30 * time.Second),
	} {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	u, err := url.Parse(cfg.DSN())
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.internal:9440" || u.Path != "/signalforge" {
		t.Fatalf("unexpected dsn %s", u)
	}
	if pw, _ := u.User.Password(); u.User.Username() != "writer" || pw != "p@ss" {
		t.Fatalf("credentials not escaped: %s", u.User)
	}
	q := u.Query()
	if q.Get("dial_timeout") != "5s" || q.Get("max_execution_time") != "30" {
		t.Fatalf("unexpected settings %v", q)
	}
	if q.Get("async_insert") != "1" || q.Get("wait_for_async_insert") != "1" {
		t.Fatalf("async insert settings missing: %v", q)
	}

	WithHTTP(true)(cfg)
	if u, _ := url.Parse(cfg.DSN()); u.Scheme != "clickhouse+http" {
		t.Fatalf("http scheme: %s", u.Scheme)
	}
}

func TestValidate(t *testing.T) {
	cfg := defaultClientConfig()
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected missing host error")
	}
	cfg.Host = "localhost"
	cfg.WaitForAsync = true
	if err := cfg.validate(); err == nil {
		t.Fatalf("wait without async insert must be rejected")
	}
}
