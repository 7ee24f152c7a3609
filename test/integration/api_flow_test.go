package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/capitalrow/MinaProd-sub007/internal/bootstrap"
	"github.com/capitalrow/MinaProd-sub007/internal/config"
	"github.com/capitalrow/MinaProd-sub007/internal/dto"
	"github.com/capitalrow/MinaProd-sub007/internal/pkg/serverutils"
	"github.com/capitalrow/MinaProd-sub007/internal/server"
	"github.com/capitalrow/MinaProd-sub007/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		t.Setenv("JWT_SECRET", "integration-secret")
	}

	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	return srv.GetApp()
}

func mintToken(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func apiRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.Bytes()
}

// silentChunk returns 100ms of PCM16 silence, base64 encoded.
func silentChunk() string {
	return base64.StdEncoding.EncodeToString(make([]byte, 3200))
}

func TestRecordingApiRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	status, _ := apiRequest(t, app, "POST", "/api/recording/v1", "", dto.StartSessionRequest{})
	assert.Equal(t, 401, status)
}

func TestRecordingApiFlow(t *testing.T) {
	app := newTestApp(t)
	userId := uuid.New()
	token := mintToken(t, userId)

	var sessionId uuid.UUID

	t.Run("start activated session", func(t *testing.T) {
		status, body := apiRequest(t, app, "POST", "/api/recording/v1", token, dto.StartSessionRequest{Activate: true})
		assert.Equal(t, 201, status)

		var result serverutils.Response[dto.SessionResponse]
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.True(t, result.Success)
		assert.Equal(t, "active", result.Data.State)
		assert.NotNil(t, result.Data.StartedAt)
		sessionId = result.Data.Id
	})

	t.Run("show session", func(t *testing.T) {
		status, body := apiRequest(t, app, "GET", "/api/recording/v1/"+sessionId.String(), token, nil)
		assert.Equal(t, 200, status)

		var result serverutils.Response[dto.SessionResponse]
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, sessionId, result.Data.Id)
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		status, _ := apiRequest(t, app, "GET", "/api/recording/v1/"+uuid.NewString(), token, nil)
		assert.Equal(t, 404, status)
	})

	t.Run("foreign session is 404", func(t *testing.T) {
		strangerToken := mintToken(t, uuid.New())
		status, _ := apiRequest(t, app, "GET", "/api/recording/v1/"+sessionId.String(), strangerToken, nil)
		assert.Equal(t, 404, status)
	})

	t.Run("silent chunk is acked but not forwarded", func(t *testing.T) {
		status, body := apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/chunks", token, dto.SubmitChunkRequest{
			SeqNo: 0,
			Audio: silentChunk(),
		})
		assert.Equal(t, 200, status)

		var result serverutils.Response[dto.ChunkAck]
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.False(t, result.Data.Forwarded)
		assert.Equal(t, "silence", result.Data.Reason)
		assert.Equal(t, "active", result.Data.State)
	})

	t.Run("chunk without audio is 400", func(t *testing.T) {
		status, _ := apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/chunks", token, map[string]interface{}{
			"seq_no": 1,
		})
		assert.Equal(t, 400, status)
	})

	t.Run("stop moves the session to finalizing", func(t *testing.T) {
		status, body := apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/stop", token, nil)
		assert.Equal(t, 200, status)

		var result serverutils.Response[dto.SessionResponse]
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, "finalizing", result.Data.State)
		assert.Equal(t, "client_stop", result.Data.StopReason)
	})

	t.Run("chunk after stop is 409", func(t *testing.T) {
		status, _ := apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/chunks", token, dto.SubmitChunkRequest{
			SeqNo: 2,
			Audio: silentChunk(),
		})
		assert.Equal(t, 409, status)
	})

	t.Run("transcript endpoint serves the stopped session", func(t *testing.T) {
		status, body := apiRequest(t, app, "GET", "/api/recording/v1/"+sessionId.String()+"/transcript", token, nil)
		assert.Equal(t, 200, status)

		var result serverutils.Response[dto.TranscriptResponse]
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, sessionId, result.Data.SessionId)
	})

	t.Run("results endpoint serves stage rows", func(t *testing.T) {
		status, body := apiRequest(t, app, "GET", "/api/recording/v1/"+sessionId.String()+"/results", token, nil)
		assert.Equal(t, 200, status)

		var result serverutils.Response[dto.SessionResultsResponse]
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, sessionId, result.Data.SessionId)
	})
}

func TestRecordingApiAbort(t *testing.T) {
	app := newTestApp(t)
	userId := uuid.New()
	token := mintToken(t, userId)

	status, body := apiRequest(t, app, "POST", "/api/recording/v1", token, dto.StartSessionRequest{Activate: true})
	assert.Equal(t, 201, status)

	var created serverutils.Response[dto.SessionResponse]
	assert.NoError(t, json.Unmarshal(body, &created))
	sessionId := created.Data.Id

	t.Run("abort fails the session", func(t *testing.T) {
		status, body := apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/abort", token, dto.AbortSessionRequest{Reason: "user_cancelled"})
		assert.Equal(t, 200, status)

		var result serverutils.Response[dto.SessionResponse]
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, "failed", result.Data.State)
		assert.Equal(t, "user_cancelled", result.Data.StopReason)
	})

	t.Run("abort replays idempotently", func(t *testing.T) {
		status, body := apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/abort", token, dto.AbortSessionRequest{Reason: "user_cancelled"})
		assert.Equal(t, 200, status)

		var result serverutils.Response[dto.SessionResponse]
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, "failed", result.Data.State)
	})

	t.Run("stop after abort is 409", func(t *testing.T) {
		status, _ := apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/stop", token, nil)
		assert.Equal(t, 409, status)
	})

	t.Run("rerun after abort is 409", func(t *testing.T) {
		status, _ := apiRequest(t, app, "POST", "/api/recording/v1/"+sessionId.String()+"/results/rerun", token, nil)
		assert.Equal(t, 409, status)
	})
}
