// ABOUTME: Integration tests for the high-level Client API
// ABOUTME: Tests construction, REST operations, file helpers and job events
package undertone

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Undertone-Audio/undertone-go/pkg/audio"
	"github.com/Undertone-Audio/undertone-go/pkg/audio/wav"
	"github.com/Undertone-Audio/undertone-go/pkg/protocol"
	"github.com/Undertone-Audio/undertone-go/pkg/stego"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{
		ServerAddr: "localhost:8951",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	// Check defaults were applied
	if client.config.ClientName != "Undertone Client" {
		t.Errorf("Expected default ClientName, got %q", client.config.ClientName)
	}

	if client.IsConnected() {
		t.Error("Expected connected=false before Connect")
	}

	if got := client.Server(); got.Name != "" {
		t.Errorf("Expected zero server hello before Connect, got %q", got.Name)
	}
}

func TestNewClientRequiresAddr(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("Expected error for missing server address")
	}
}

func TestClientClose(t *testing.T) {
	client, err := NewClient(Config{ServerAddr: "localhost:8951"})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	// Close without Connect must be safe
	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

// stegoServer scripts the REST API with the real embedding engine
func stegoServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(protocol.InfoResponse{
			ServerID:   "srv-test",
			Name:       "Scripted Server",
			Version:    "0.0.1",
			Techniques: []string{protocol.TechniqueLSB, protocol.TechniqueEcho},
		})
	})

	mux.HandleFunc("/api/v1/encode", func(w http.ResponseWriter, r *http.Request) {
		carrier := formBuffer(t, r, "audio")
		out, err := stego.EncodeLSB(carrier, r.FormValue("message"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: err.Error()})
			return
		}
		data, err := wav.Encode(out)
		if err != nil {
			t.Errorf("wav encode failed: %v", err)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("X-Undertone-Job", "job-42")
		w.Write(data)
	})

	mux.HandleFunc("/api/v1/decode", func(w http.ResponseWriter, r *http.Request) {
		stegoAudio := formBuffer(t, r, "audio")
		message, found := stego.DecodeLSB(stegoAudio)
		json.NewEncoder(w).Encode(protocol.DecodeResponse{
			JobID:     "job-43",
			Technique: protocol.TechniqueLSB,
			Found:     found,
			Message:   message,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func formBuffer(t *testing.T, r *http.Request, field string) *audio.Buffer {
	t.Helper()
	file, _, err := r.FormFile(field)
	if err != nil {
		t.Fatalf("missing %s upload: %v", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("reading %s upload: %v", field, err)
	}
	buf, err := wav.Decode(data)
	if err != nil {
		t.Fatalf("decoding %s upload: %v", field, err)
	}
	return buf
}

func scriptedClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		ServerAddr: strings.TrimPrefix(srv.URL, "http://"),
		ClientName: "Test Client",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestClientInfo(t *testing.T) {
	client := scriptedClient(t, stegoServer(t))

	info, err := client.Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	if info.Name != "Scripted Server" {
		t.Errorf("Expected server name 'Scripted Server', got %q", info.Name)
	}
	if len(info.Techniques) != 2 {
		t.Errorf("Expected 2 techniques, got %v", info.Techniques)
	}
}

func TestClientEncodeDecodeLSB(t *testing.T) {
	client := scriptedClient(t, stegoServer(t))
	ctx := context.Background()

	carrier := audio.NewTone(440, 44100, 1, 16000)
	result, err := client.EncodeLSB(ctx, carrier, "meet at dawn")
	if err != nil {
		t.Fatalf("EncodeLSB failed: %v", err)
	}

	if result.JobID != "job-42" {
		t.Errorf("Expected job ID 'job-42', got %q", result.JobID)
	}
	if len(result.Stego.Samples) != len(carrier.Samples) {
		t.Fatalf("Expected %d stego samples, got %d", len(carrier.Samples), len(result.Stego.Samples))
	}

	decoded, err := client.DecodeLSB(ctx, result.Stego)
	if err != nil {
		t.Fatalf("DecodeLSB failed: %v", err)
	}

	if !decoded.Found {
		t.Fatal("Expected message to be found")
	}
	if decoded.Message != "meet at dawn" {
		t.Errorf("Expected message 'meet at dawn', got %q", decoded.Message)
	}
}

func TestClientFileHelpers(t *testing.T) {
	client := scriptedClient(t, stegoServer(t))
	ctx := context.Background()
	dir := t.TempDir()

	carrierPath := filepath.Join(dir, "carrier.wav")
	stegoPath := filepath.Join(dir, "stego.wav")

	if err := wav.WriteFile(carrierPath, audio.NewTone(440, 44100, 1, 16000)); err != nil {
		t.Fatalf("writing carrier: %v", err)
	}

	result, err := client.EncodeLSBFile(ctx, carrierPath, stegoPath, "buried")
	if err != nil {
		t.Fatalf("EncodeLSBFile failed: %v", err)
	}
	if result.JobID == "" {
		t.Error("Expected a job ID")
	}
	if _, err := os.Stat(stegoPath); err != nil {
		t.Fatalf("Expected stego file to be written: %v", err)
	}

	decoded, err := client.DecodeLSBFile(ctx, stegoPath)
	if err != nil {
		t.Fatalf("DecodeLSBFile failed: %v", err)
	}
	if !decoded.Found || decoded.Message != "buried" {
		t.Errorf("Expected to recover 'buried', got (%q, %v)", decoded.Message, decoded.Found)
	}
}

func TestClientFileHelpersMissingCarrier(t *testing.T) {
	client := scriptedClient(t, stegoServer(t))

	_, err := client.EncodeLSBFile(context.Background(), "/does/not/exist.wav", "/tmp/out.wav", "x")
	if err == nil {
		t.Error("Expected error for missing carrier file")
	}
}

// eventServer scripts the WebSocket side: performs the hello handshake
// and then runs the script
func eventServer(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("read hello failed: %v", err)
			return
		}
		conn.WriteJSON(protocol.Message{
			Type: protocol.TypeServerHello,
			Payload: protocol.ServerHello{
				ServerID:   "srv-1",
				Name:       "Event Server",
				Version:    protocol.ProtocolVersion,
				Techniques: []string{protocol.TechniqueLSB, protocol.TechniqueEcho},
			},
		})
		script(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientJobEvents(t *testing.T) {
	snr := 52.5
	srv := eventServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(protocol.Message{
			Type: protocol.TypeJobComplete,
			Payload: protocol.JobComplete{
				JobID:      "job-7",
				Kind:       protocol.KindEncode,
				Technique:  protocol.TechniqueLSB,
				DurationMS: 9,
				SNR:        &snr,
			},
		})

		// Hold the connection open until the client disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	events := make(chan JobEvent, 4)
	client, err := NewClient(Config{
		ServerAddr: strings.TrimPrefix(srv.URL, "http://"),
		ClientName: "Event Test",
		OnJob:      func(ev JobEvent) { events <- ev },
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if got := client.Server().Name; got != "Event Server" {
		t.Errorf("Expected server name 'Event Server', got %q", got)
	}

	select {
	case ev := <-events:
		if ev.Stage != StageComplete {
			t.Errorf("Expected stage %q, got %q", StageComplete, ev.Stage)
		}
		if ev.JobID != "job-7" {
			t.Errorf("Expected job ID 'job-7', got %q", ev.JobID)
		}
		if ev.SNR == nil || *ev.SNR != 52.5 {
			t.Errorf("Expected SNR 52.5, got %v", ev.SNR)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for job event")
	}
}

func TestClientConnectionLostError(t *testing.T) {
	srv := eventServer(t, func(conn *websocket.Conn) {
		// Drop the connection right after the handshake
	})

	errs := make(chan error, 1)
	client, err := NewClient(Config{
		ServerAddr: strings.TrimPrefix(srv.URL, "http://"),
		OnError:    func(err error) { errs <- err },
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case err := <-errs:
		if !strings.Contains(err.Error(), "lost") {
			t.Errorf("Expected connection lost error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for connection error")
	}
}

func TestClientConnectFailure(t *testing.T) {
	client, err := NewClient(Config{ServerAddr: "localhost:1"})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if err := client.Connect(); err == nil {
		t.Error("Expected Connect to fail with no server listening")
	}
}
