package observability

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/prospect-auction/internal/config"
	"github.com/riskibarqy/prospect-auction/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cfg := config.Config{
		UptraceEnabled: false,
		ServiceName:    "prospect-auction-api",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := InitUptrace(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestInitUptrace_EnabledWithoutDSNIsNoop(t *testing.T) {
	shutdown, err := InitUptrace(config.Config{UptraceEnabled: true}, nil)
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{}, logging.NewNop())
	if err != nil {
		t.Fatalf("init pyroscope: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop pyroscope: %v", err)
	}
}

func TestPprofServer(t *testing.T) {
	if srv := NewPprofServer(config.Config{PprofEnabled: false}); srv != nil {
		t.Fatalf("expected nil server when pprof is disabled")
	}
	if err := ServePprof(context.Background(), nil, nil, time.Second); err != nil {
		t.Fatalf("expected nil server to be a no-op: %v", err)
	}

	srv := NewPprofServer(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"})
	if srv == nil {
		t.Fatalf("expected server when pprof is enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServePprof(ctx, srv, logging.NewNop(), time.Second) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve pprof: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("pprof server did not stop")
	}
}
