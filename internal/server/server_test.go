// ABOUTME: Tests for the stream server
// ABOUTME: Runs full PCM and Opus sessions over httptest websockets
package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/scummtools/robot-go/internal/protocol"
	"github.com/scummtools/robot-go/internal/robottest"
	"github.com/scummtools/robot-go/pkg/audio"
	"github.com/scummtools/robot-go/pkg/audio/decode"
	"github.com/scummtools/robot-go/pkg/session"
)

func testSession(t *testing.T, frames int) *session.Result {
	t.Helper()
	b := robottest.New()
	for i := 0; i < frames; i++ {
		pos := int32(4410*i)&^3 + 2
		if i == 0 {
			pos = 0
		}
		b.AddFrame(robottest.Frame{Video: robottest.Video(), HasAudio: true, Position: pos, Audio: robottest.Ramp(2213, 0x01)})
	}
	res, err := session.Decode(context.Background(), b.Build(), session.DefaultOptions())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return res
}

type received struct {
	hello  protocol.ServerHello
	start  protocol.StreamStart
	frames []protocol.StreamFrame
	chunks [][]byte
	stamps []int64
	end    *protocol.StreamEnd
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/robot"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

func sendHello(t *testing.T, conn *websocket.Conn, id string, codecs ...string) {
	t.Helper()
	err := conn.WriteJSON(protocol.Message{
		Type:    protocol.TypeClientHello,
		Payload: protocol.ClientHello{ClientID: id, Name: "test listener", Version: protocol.Version, SupportCodecs: codecs},
	})
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

func receiveAll(t *testing.T, conn *websocket.Conn) *received {
	t.Helper()
	r := &received{}
	conn.SetReadDeadline(time.Now().Add(20 * time.Second))
	for r.end == nil {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if kind == websocket.BinaryMessage {
			ts, payload, err := protocol.ParseAudioChunk(data)
			if err != nil {
				t.Fatalf("ParseAudioChunk: %v", err)
			}
			r.stamps = append(r.stamps, ts)
			r.chunks = append(r.chunks, payload)
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		switch env.Type {
		case protocol.TypeServerHello:
			mustDecode(t, env, &r.hello)
		case protocol.TypeStreamStart:
			mustDecode(t, env, &r.start)
		case protocol.TypeStreamFrame:
			var f protocol.StreamFrame
			mustDecode(t, env, &f)
			r.frames = append(r.frames, f)
		case protocol.TypeStreamEnd:
			r.end = &protocol.StreamEnd{}
			mustDecode(t, env, r.end)
		default:
			t.Fatalf("unexpected message type %s", env.Type)
		}
	}
	return r
}

func mustDecode(t *testing.T, env protocol.Envelope, v any) {
	t.Helper()
	if err := env.Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestStreamPCM(t *testing.T) {
	res := testSession(t, 10)
	s := New(Config{Name: "test", Unpaced: true}, res)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	sendHello(t, conn, uuid.NewString(), "flac", "pcm")
	r := receiveAll(t, conn)

	if r.hello.ServerID != s.ID() || r.hello.Version != protocol.Version {
		t.Errorf("unexpected server hello %+v", r.hello)
	}
	if r.start.Codec != "pcm" || r.start.SampleRate != res.Format.SampleRate || r.start.Channels != 1 {
		t.Errorf("unexpected stream start %+v", r.start)
	}
	if r.start.FrameCount != 10 || r.start.SessionID != res.ID {
		t.Errorf("unexpected stream start %+v", r.start)
	}

	total := 0
	for i, c := range r.chunks {
		total += len(c) / 2
		if i < len(r.chunks)-1 && len(c) != 441*2 {
			t.Fatalf("chunk %d: expected 441 samples, got %d bytes", i, len(c))
		}
	}
	if total != len(res.Samples) {
		t.Errorf("expected %d samples, got %d", len(res.Samples), total)
	}
	if r.stamps[0] != 0 || r.stamps[1] != 20000 {
		t.Errorf("expected 20ms timestamps, got %v", r.stamps[:2])
	}
	if got := int16(binary.LittleEndian.Uint16(r.chunks[0][200:])); got != res.Samples[100] {
		t.Errorf("sample 100: expected %d, got %d", res.Samples[100], got)
	}

	if len(r.frames) == 0 || r.frames[len(r.frames)-1].Frame != 9 {
		t.Fatalf("expected frames ending at 9, got %+v", r.frames)
	}
	for i := 1; i < len(r.frames); i++ {
		if r.frames[i].Frame < r.frames[i-1].Frame || r.frames[i].Timestamp <= r.frames[i-1].Timestamp {
			t.Fatalf("frames out of order at %d: %+v", i, r.frames)
		}
	}
	if r.frames[0].Regime != "normal" {
		t.Errorf("expected normal regime, got %s", r.frames[0].Regime)
	}
	if r.end.Frames != 10 || r.end.Samples != int64(len(res.Samples)) {
		t.Errorf("unexpected stream end %+v", r.end)
	}
}

func TestStreamOpus(t *testing.T) {
	res := testSession(t, 5)
	s := New(Config{Unpaced: true}, res)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	sendHello(t, conn, uuid.NewString(), "opus")
	r := receiveAll(t, conn)

	if r.start.Codec != "opus" || r.start.SampleRate != OpusSampleRate {
		t.Fatalf("unexpected stream start %+v", r.start)
	}

	dec, err := decode.NewOpus(decodeFormat())
	if err != nil {
		t.Fatalf("NewOpus: %v", err)
	}
	defer dec.Close()

	decoded := 0
	for i, packet := range r.chunks {
		pcm, err := dec.Decode(packet)
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		decoded += len(pcm)
	}
	// 0.5s at 48 kHz in whole 20ms frames
	if decoded != 24000 {
		t.Errorf("expected 24000 decoded samples, got %d", decoded)
	}
	if r.stamps[1] != 20000 {
		t.Errorf("expected 20ms between packets, got %d", r.stamps[1])
	}
}

func decodeFormat() audio.Format {
	return audio.Format{Codec: "opus", SampleRate: OpusSampleRate, Channels: 1, BitDepth: 16}
}

func TestNegotiateCodec(t *testing.T) {
	tests := []struct {
		name    string
		forced  string
		offered []string
		want    string
	}{
		{"first supported", "", []string{"flac", "opus", "pcm"}, "opus"},
		{"none offered", "", nil, "pcm"},
		{"unsupported only", "", []string{"flac"}, "pcm"},
		{"forced", "opus", []string{"pcm"}, "opus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{Codec: tt.forced}, nil)
			if got := s.negotiateCodec(tt.offered); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRejectsBadHello(t *testing.T) {
	s := New(Config{Unpaced: true}, testSession(t, 2))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	if err := conn.WriteJSON(protocol.Message{Type: protocol.TypeStreamEnd, Payload: protocol.StreamEnd{}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}

func TestStopEndsPacedStream(t *testing.T) {
	s := New(Config{}, testSession(t, 50))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	sendHello(t, conn, uuid.NewString(), "pcm")

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		kind, _, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if kind == websocket.BinaryMessage {
			break
		}
	}
	if s.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", s.ClientCount())
	}

	s.Stop()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
