package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestQualify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"almacen", "guard.decision", "almacen.guard.decision"},
		{"", " api/request ", "api_request"},
		{"almacen", "foo..bar.", "almacen.foo.bar"},
		{"almacen", "  ", ""},
	}
	for _, tt := range tests {
		if got := qualify(tt.prefix, tt.name); got != tt.want {
			t.Fatalf("qualify(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestEncodeTags(t *testing.T) {
	t.Parallel()

	got := encodeTags(
		map[string]string{"env": "prod", " service ": " ui "},
		map[string]string{"outcome": " proceed ", "": "ignored", "env": "stage"},
	)
	want := "|#env:stage,outcome:proceed,service:ui"
	if got != want {
		t.Fatalf("encodeTags mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := encodeTags(nil, nil); got != "" {
		t.Fatalf("expected empty suffix, got %q", got)
	}
}

func TestNewDisabledReturnsNoop(t *testing.T) {
	t.Parallel()

	sink, err := New(Config{Enabled: true, Address: "  "})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := sink.(Noop); !ok {
		t.Fatalf("expected Noop sink, got %T", sink)
	}

	sink, err = New(Config{Enabled: false, Address: "127.0.0.1:8125"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := sink.(Noop); !ok {
		t.Fatalf("expected Noop sink when disabled, got %T", sink)
	}
}

func TestDialError(t *testing.T) {
	t.Parallel()

	_, err := Dial("bad address", Config{})
	if err == nil || !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("expected dial error, got %v", err)
	}
}

func TestClientWritesLines(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listener unavailable: %v", err)
	}
	defer pc.Close()

	client, err := Dial(pc.LocalAddr().String(), Config{Prefix: ".almacen.", GlobalTags: map[string]string{"env": "test"}})
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer client.Close()

	client.Count("guard.decision", 1, map[string]string{"outcome": "proceed"})

	buf := make([]byte, 512)
	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "almacen.guard.decision:1|c|#env:test,outcome:proceed"
	if got := string(buf[:n]); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	client.Timing("api.request", 1500*time.Microsecond, nil)
	n, _, err = pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); got != "almacen.api.request:1.5|ms|#env:test" {
		t.Fatalf("unexpected timing line %q", got)
	}
}

func TestClientCloseIdempotent(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	// writes after close are dropped
	client.Count("x", 1, nil)

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil Close error: %v", err)
	}
}
