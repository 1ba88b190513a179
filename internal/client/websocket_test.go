// ABOUTME: Tests for WebSocket client implementation
// ABOUTME: Tests connection, handshake, and message routing against a live server
package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scummtools/robot-go/internal/robottest"
	"github.com/scummtools/robot-go/internal/server"
	"github.com/scummtools/robot-go/pkg/session"
)

func TestNewClient(t *testing.T) {
	client := NewClient(Config{
		ServerAddr: "localhost:8927",
		ClientID:   "test-client",
		Name:       "Test Listener",
	})

	if client.config.ServerAddr != "localhost:8927" {
		t.Errorf("expected server addr localhost:8927, got %s", client.config.ServerAddr)
	}
	if len(client.config.Codecs) != 1 || client.config.Codecs[0] != "pcm" {
		t.Errorf("expected default codecs [pcm], got %v", client.config.Codecs)
	}
	if client.IsConnected() {
		t.Error("new client should not be connected")
	}
}

func TestConnectFails(t *testing.T) {
	client := NewClient(Config{ServerAddr: "127.0.0.1:1", ClientID: "x"})
	if err := client.Connect(); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestStreamSession(t *testing.T) {
	b := robottest.New()
	for i := 0; i < 5; i++ {
		pos := int32(4410*i)&^3 + 2
		if i == 0 {
			pos = 0
		}
		b.AddFrame(robottest.Frame{Video: robottest.Video(), HasAudio: true, Position: pos, Audio: robottest.Packet(2213)})
	}
	res, err := session.Decode(context.Background(), b.Build(), session.DefaultOptions())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	srv := server.New(server.Config{Name: "Test Server", Unpaced: true, File: "test.rbt"}, res)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Stop()

	client := NewClient(Config{
		ServerAddr: strings.TrimPrefix(ts.URL, "http://"),
		ClientID:   "listener-1",
		Name:       "Test Listener",
	})
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	if got := client.ServerHello().Name; got != "Test Server" {
		t.Errorf("server name = %q, want Test Server", got)
	}

	var (
		bytes     int
		frames    int
		lastFrame = -1
		start     bool
	)
	timeout := time.After(10 * time.Second)
	for done := false; !done; {
		select {
		case s := <-client.StreamStart:
			start = true
			if s.Codec != "pcm" || s.FrameCount != 5 {
				t.Errorf("unexpected stream/start: %+v", s)
			}
		case c := <-client.AudioChunks:
			bytes += len(c.Data)
		case f := <-client.Frames:
			frames++
			lastFrame = f.Frame
		case end := <-client.StreamEnd:
			if end.Frames != 5 {
				t.Errorf("end frames = %d, want 5", end.Frames)
			}
			done = true
		case <-timeout:
			t.Fatal("timed out waiting for stream/end")
		}
	}

	for drained := false; !drained; {
		select {
		case c := <-client.AudioChunks:
			bytes += len(c.Data)
		case f := <-client.Frames:
			frames++
			lastFrame = f.Frame
		default:
			drained = true
		}
	}

	if !start {
		t.Error("no stream/start received")
	}
	if frames == 0 || lastFrame != 4 {
		t.Errorf("got %d frame events ending at %d, want last frame 4", frames, lastFrame)
	}
	if want := len(res.Samples) * 2; bytes != want {
		t.Errorf("audio bytes = %d, want %d", bytes, want)
	}

	select {
	case <-client.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("read loop did not stop after stream/end")
	}
	if client.IsConnected() {
		t.Error("client still connected after stream/end")
	}
}
