package integration

import (
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/entity"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/serverutils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

// eventFrame is the subset of the wire envelope the assertions care about.
type eventFrame struct {
	Type     string `json:"type"`
	Sequence int64  `json:"sequence"`
}

func dialEventStream(t *testing.T, addr string, sessionId uuid.UUID, token string, lastSeen int64) *websocket.Conn {
	t.Helper()

	url := fmt.Sprintf("ws://%s/api/recording/v1/%s/events?token=%s&last_seen_sequence=%d", addr, sessionId, token, lastSeen)

	// The listener goroutine may not be accepting yet.
	var conn *websocket.Conn
	var err error
	for attempt := 0; attempt < 20; attempt++ {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			return conn
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("Failed to dial event stream: %v", err)
	return nil
}

func readFrame(t *testing.T, conn *websocket.Conn) eventFrame {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}

	var frame eventFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("Frame is not an event envelope: %v", err)
	}
	return frame
}

func TestEventStreamReplayAndLive(t *testing.T) {
	app := newTestApp(t)
	userId := uuid.New()
	token := mintToken(t, userId)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to open listener: %v", err)
	}
	go app.Listener(ln)
	defer app.Shutdown()

	status, body := apiRequest(t, app, "POST", "/api/recording/v1", token, dto.StartSessionRequest{Activate: true})
	assert.Equal(t, 201, status)

	var created serverutils.Response[dto.SessionResponse]
	assert.NoError(t, json.Unmarshal(body, &created))
	sessionId := created.Data.Id

	conn := dialEventStream(t, ln.Addr().String(), sessionId, token, 0)
	defer conn.Close()

	// The activation event predates the subscription, so it must arrive
	// via replay.
	first := readFrame(t, conn)
	assert.Equal(t, entity.EventRecordStart, first.Type)
	assert.Equal(t, int64(1), first.Sequence)

	// Stopping while subscribed delivers the lifecycle events live.
	status, _ = apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/stop", token, nil)
	assert.Equal(t, 200, status)

	second := readFrame(t, conn)
	assert.Equal(t, entity.EventRecordStop, second.Type)
	assert.Greater(t, second.Sequence, first.Sequence)

	third := readFrame(t, conn)
	assert.Equal(t, entity.EventSessionFinalized, third.Type)
	assert.Greater(t, third.Sequence, second.Sequence)
}

func TestEventStreamResumesAfterLastSeen(t *testing.T) {
	app := newTestApp(t)
	userId := uuid.New()
	token := mintToken(t, userId)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to open listener: %v", err)
	}
	go app.Listener(ln)
	defer app.Shutdown()

	status, body := apiRequest(t, app, "POST", "/api/recording/v1", token, dto.StartSessionRequest{Activate: true})
	assert.Equal(t, 201, status)

	var created serverutils.Response[dto.SessionResponse]
	assert.NoError(t, json.Unmarshal(body, &created))
	sessionId := created.Data.Id

	status, _ = apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/stop", token, nil)
	assert.Equal(t, 200, status)

	// A consumer that already saw sequence 1 must resume at 2.
	conn := dialEventStream(t, ln.Addr().String(), sessionId, token, 1)
	defer conn.Close()

	frame := readFrame(t, conn)
	assert.Equal(t, entity.EventRecordStop, frame.Type)
	assert.Equal(t, int64(2), frame.Sequence)
}

func TestEventStreamRejectsForeignSession(t *testing.T) {
	app := newTestApp(t)
	owner := mintToken(t, uuid.New())
	stranger := mintToken(t, uuid.New())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to open listener: %v", err)
	}
	go app.Listener(ln)
	defer app.Shutdown()

	status, body := apiRequest(t, app, "POST", "/api/recording/v1", owner, dto.StartSessionRequest{})
	assert.Equal(t, 201, status)

	var created serverutils.Response[dto.SessionResponse]
	assert.NoError(t, json.Unmarshal(body, &created))

	url := fmt.Sprintf("ws://%s/api/recording/v1/%s/events?token=%s", ln.Addr().String(), created.Data.Id, stranger)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err, "handshake for a foreign session must be refused")
	if resp != nil {
		assert.Equal(t, 404, resp.StatusCode)
	}
}
