package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/hszk-dev/videocatalog/internal/domain/model"
)

// mockNATSConn implements natsConn for testing.
type mockNATSConn struct {
	published   []*nats.Msg
	publishErr  error
	connected   bool
	drainErr    error
	drainCalled bool
}

func (m *mockNATSConn) PublishMsg(msg *nats.Msg) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, msg)
	return nil
}

func (m *mockNATSConn) IsConnected() bool {
	return m.connected
}

func (m *mockNATSConn) Drain() error {
	m.drainCalled = true
	return m.drainErr
}

func TestDefaultNATSConfig(t *testing.T) {
	cfg := DefaultNATSConfig(nats.DefaultURL)

	if cfg.URL != nats.DefaultURL || cfg.Subject != "video.created" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.MaxReconnects <= 0 || cfg.ReconnectWait <= 0 {
		t.Errorf("reconnect settings must be positive: %+v", cfg)
	}
}

func TestNATSPublisher_Send(t *testing.T) {
	conn := &mockNATSConn{connected: true}
	p := &NATSPublisher{conn: conn, subject: "video.created"}

	event := model.NewVideoMediaCreated("v1", "m1", "videoId-v1/type-TRAILER")
	if err := p.Send(context.Background(), event); err != nil {
		t.Fatalf("Send() unexpected error = %v", err)
	}

	if len(conn.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(conn.published))
	}
	msg := conn.published[0]
	if msg.Subject != "video.created" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if got := msg.Header.Get("Event-Type"); got != model.EventTypeVideoMediaCreated {
		t.Errorf("Event-Type header = %q", got)
	}

	var body map[string]any
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["resource_id"] != "m1" || body["video_id"] != "v1" || body["file_path"] != "videoId-v1/type-TRAILER" {
		t.Errorf("body = %v", body)
	}

	conn.publishErr = nats.ErrConnectionClosed
	err := p.Send(context.Background(), event)
	if !errors.Is(err, nats.ErrConnectionClosed) {
		t.Errorf("Send() error = %v, want ErrConnectionClosed", err)
	}
}

func TestNATSPublisher_PingAndClose(t *testing.T) {
	conn := &mockNATSConn{connected: true}
	p := &NATSPublisher{conn: conn}

	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping() unexpected error = %v", err)
	}
	conn.connected = false
	if err := p.Ping(context.Background()); err == nil {
		t.Errorf("Ping() on disconnected conn expected error")
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close() unexpected error = %v", err)
	}
	if !conn.drainCalled {
		t.Errorf("Close() did not drain the connection")
	}

	conn.drainErr = errors.New("already closed")
	if err := p.Close(); err == nil || !strings.Contains(err.Error(), "failed to drain") {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNopPublisher_Send(t *testing.T) {
	if err := (NopPublisher{}).Send(context.Background(), model.NewVideoMediaCreated("v1", "m1", "k")); err != nil {
		t.Errorf("Send() unexpected error = %v", err)
	}
}
