package natsutil

import (
	"testing"
	"time"

	"github.com/gftdcojp/tiervec/internal/config"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConnect(t *testing.T) {
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatal(err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats-server failed to start")
	}
	defer ns.Shutdown()

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := config.DefaultConfig().NATS
	cfg.URL = ns.ClientURL()

	nc, err := Connect(cfg, zap.New(core))
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if !nc.IsConnected() {
		t.Fatal("expected connection to be established")
	}
	if logs.FilterMessage("connected to NATS").Len() != 1 {
		t.Error("expected connect to be logged")
	}

	nc.Close()
	deadline := time.Now().Add(time.Second)
	for logs.FilterMessage("NATS connection closed").Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if logs.FilterMessage("NATS connection closed").Len() != 1 {
		t.Error("expected close to be logged")
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := config.DefaultConfig().NATS
	cfg.URL = "nats://127.0.0.1:1"
	if _, err := Connect(cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error connecting to closed port")
	}
}

func TestOptionsMissingSeed(t *testing.T) {
	cfg := config.DefaultConfig().NATS
	cfg.NKeySeedFile = "/nonexistent/seed.nk"
	if _, err := Options(cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing nkey seed file")
	}
}

func TestOptionsCount(t *testing.T) {
	cfg := config.DefaultConfig().NATS
	base, err := Options(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	cfg.CredentialsFile = "/tmp/user.creds"
	cfg.TLS = config.TLSConfig{CAFile: "ca.pem", CertFile: "cert.pem", KeyFile: "key.pem"}
	withAuth, err := Options(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(withAuth) != len(base)+3 {
		t.Errorf("expected 3 extra options, got %d", len(withAuth)-len(base))
	}
}

func applyOptions(t *testing.T, opts []nats.Option) nats.Options {
	t.Helper()
	o := nats.GetDefaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			t.Fatal(err)
		}
	}
	return o
}

func TestOptionsReconnectBuffer(t *testing.T) {
	cfg := config.DefaultConfig().NATS
	opts, err := Options(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if got := applyOptions(t, opts).ReconnectBufSize; got != 16*1024*1024 {
		t.Errorf("expected 16MB reconnect buffer, got %d", got)
	}

	cfg.ReconnectBuffer = 0
	opts, err = Options(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if got := applyOptions(t, opts).ReconnectBufSize; got != nats.DefaultReconnectBufSize {
		t.Errorf("expected client default reconnect buffer, got %d", got)
	}
}

func TestOptionsDefaultName(t *testing.T) {
	cfg := config.DefaultConfig().NATS
	cfg.ConnectionName = ""
	opts, err := Options(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if got := applyOptions(t, opts).Name; got != "tiervecd" {
		t.Errorf("expected fallback connection name, got %q", got)
	}
}
