package notify

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/bc-dunia/hostguard/internal/config"
	"github.com/bc-dunia/hostguard/internal/events"
)

func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestBuildMessage(t *testing.T) {
	cfg := config.SMTP{Sender: "pi@example.com", Receiver: "ops@example.com"}

	msg, err := buildMessage(cfg, "High CPU Usage Alert", "CPU usage is too high! Current usage: 95.0%")
	if err != nil {
		t.Fatalf("buildMessage failed: %v", err)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"pi@example.com", "ops@example.com", "Subject: High CPU Usage Alert", "text/plain"} {
		if !strings.Contains(out, want) {
			t.Errorf("message missing %q:\n%s", want, out)
		}
	}
}

func TestBuildMessageRejectsBadAddress(t *testing.T) {
	_, err := buildMessage(config.SMTP{Sender: "not an address", Receiver: "ops@example.com"}, "s", "b")
	if err == nil {
		t.Fatal("expected error for malformed sender")
	}
}

func TestSendUnreachableHostFailsOnce(t *testing.T) {
	var buf bytes.Buffer
	n := NewSMTPNotifier(config.SMTP{
		Sender:   "pi@example.com",
		Password: "hunter2",
		Receiver: "ops@example.com",
		Host:     "127.0.0.1",
		Port:     closedPort(t),
	}, events.NewLoggerWithWriter(&buf))

	err := n.Send(context.Background(), "High Disk Usage Alert", "Disk usage is too high!")
	if err == nil {
		t.Fatal("expected send to fail")
	}

	var nerr *Error
	if !errors.As(err, &nerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if nerr.Subject != "High Disk Usage Alert" {
		t.Errorf("subject = %q", nerr.Subject)
	}

	out := buf.String()
	if !strings.Contains(out, "Failed to send email") {
		t.Errorf("expected failure log line:\n%s", out)
	}
	if strings.Count(out, "Failed to send email") != 1 {
		t.Errorf("expected a single attempt:\n%s", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Errorf("password leaked into log:\n%s", out)
	}
}

func TestNopSendSucceeds(t *testing.T) {
	var buf bytes.Buffer
	n := Nop{Log: events.NewLoggerWithWriter(&buf)}

	if err := n.Send(context.Background(), "Host Shutdown Alert", "body"); err != nil {
		t.Fatalf("Nop.Send returned %v", err)
	}
	if !strings.Contains(buf.String(), "Dry run") {
		t.Errorf("expected dry-run log line:\n%s", buf.String())
	}
}
