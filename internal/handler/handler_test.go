package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"SentriSafe/internal/detection"
	"SentriSafe/internal/models"
	"SentriSafe/internal/sos"
	"SentriSafe/pkg/cache"
	"SentriSafe/pkg/util"
	"SentriSafe/pkg/ws"
)

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	cookies []*http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := util.InitDatabase("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	c, err := cache.NewCache(cache.Config{Type: "local"})
	require.NoError(t, err)

	hub := ws.NewHub()
	manager := sos.NewManager(db, c, hub, nil)
	scanner := detection.NewScanner(rand.New(rand.NewSource(1)))

	h := New(db, c, scanner, manager, hub, nil)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	h.RegisterRoutes(r)

	return &testEnv{router: r, db: db}
}

// do 发送请求并保留会话 cookie
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range e.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		e.cookies = set
	}
	return w
}

func (e *testEnv) signUp(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email": "user@example.com", "password": "password123", "displayName": "Test",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email": "user@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 0, envelope.Code, envelope.Message)
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)

	t.Run("protected route requires login", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/settings", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("register and login", func(t *testing.T) {
		e.signUp(t)
		w := e.do(t, http.MethodGet, "/api/auth/me", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var user models.User
		decodeData(t, w, &user)
		assert.Equal(t, "user@example.com", user.Email)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/auth/login", gin.H{
			"email": "user@example.com", "password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout invalidates session", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/auth/logout", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = e.do(t, http.MethodGet, "/api/settings", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSettingsEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.signUp(t)

	t.Run("defaults are all enabled", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/settings", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var s models.UserSettings
		decodeData(t, w, &s)
		assert.True(t, s.ShakeSOSEnabled)
		assert.True(t, s.KeyboardSOSEnabled)
		assert.True(t, s.AutoLocationEnabled)
		assert.True(t, s.AutoRecordingEnabled)
	})

	t.Run("partial update keeps other flags", func(t *testing.T) {
		w := e.do(t, http.MethodPatch, "/api/settings", gin.H{"shakeSosEnabled": false})
		require.Equal(t, http.StatusOK, w.Code)

		var s models.UserSettings
		decodeData(t, w, &s)
		assert.False(t, s.ShakeSOSEnabled)
		assert.True(t, s.KeyboardSOSEnabled)
		assert.True(t, s.AutoRecordingEnabled)
	})
}

func TestMessageEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.signUp(t)

	var msgs []models.CannedMessage
	w := e.do(t, http.MethodGet, "/api/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &msgs)
	require.Len(t, msgs, 3, "built-in messages are seeded on first load")
	assert.True(t, msgs[0].IsDefault)

	t.Run("set default keeps exactly one", func(t *testing.T) {
		w := e.do(t, http.MethodPost, fmt.Sprintf("/api/messages/%d/default", msgs[2].ID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var after []models.CannedMessage
		decodeData(t, e.do(t, http.MethodGet, "/api/messages", nil), &after)

		defaults := 0
		for _, m := range after {
			if m.IsDefault {
				defaults++
				assert.Equal(t, msgs[2].ID, m.ID)
			}
		}
		assert.Equal(t, 1, defaults)
	})

	t.Run("set default on unknown id fails", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/messages/99999/default", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create update delete", func(t *testing.T) {
		var created models.CannedMessage
		w := e.do(t, http.MethodPost, "/api/messages", gin.H{"label": "Custom", "text": "Call me back"})
		require.Equal(t, http.StatusCreated, w.Code)
		decodeData(t, w, &created)

		w = e.do(t, http.MethodPut, fmt.Sprintf("/api/messages/%d", created.ID),
			gin.H{"label": "Custom", "text": "Call me back now"})
		require.Equal(t, http.StatusOK, w.Code)

		w = e.do(t, http.MethodDelete, fmt.Sprintf("/api/messages/%d", created.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestContactEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.signUp(t)

	t.Run("name alone is rejected", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/contacts", gin.H{"name": "Alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("phone or email suffices", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/contacts", gin.H{"name": "Alice", "phone": "+1555000"})
		assert.Equal(t, http.StatusCreated, w.Code)

		w = e.do(t, http.MethodPost, "/api/contacts", gin.H{"name": "Bob", "email": "bob@example.com"})
		assert.Equal(t, http.StatusCreated, w.Code)

		var contacts []models.TrustedContact
		decodeData(t, e.do(t, http.MethodGet, "/api/contacts", nil), &contacts)
		assert.Len(t, contacts, 2)
	})
}

func TestScanEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.signUp(t)

	t.Run("safe message leaves no trace", func(t *testing.T) {
		var result detection.Result
		w := e.do(t, http.MethodPost, "/api/scan", gin.H{"content": "see you at lunch"})
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &result)
		assert.False(t, result.IsHarmful)

		var alerts []models.SafetyAlert
		decodeData(t, e.do(t, http.MethodGet, "/api/alerts", nil), &alerts)
		assert.Empty(t, alerts)
	})

	t.Run("harmful message creates alert and evidence", func(t *testing.T) {
		var result detection.Result
		w := e.do(t, http.MethodPost, "/api/scan", gin.H{
			"content": "I will kill you", "saveEvidence": true, "platform": "SMS",
		})
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &result)
		assert.True(t, result.IsHarmful)
		assert.Equal(t, "Threats", result.Category)

		var alerts []models.SafetyAlert
		decodeData(t, e.do(t, http.MethodGet, "/api/alerts", nil), &alerts)
		require.Len(t, alerts, 1)
		assert.Equal(t, models.AlertTypeDetection, alerts[0].AlertType)
		assert.Contains(t, alerts[0].Message, "Threats")

		var items []models.Evidence
		decodeData(t, e.do(t, http.MethodGet, "/api/evidence", nil), &items)
		require.Len(t, items, 1)
		assert.Equal(t, "I will kill you", items[0].Content)
		assert.Equal(t, "SMS", items[0].Platform)
	})
}

func TestSOSEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.signUp(t)

	w := e.do(t, http.MethodPost, "/api/contacts", gin.H{"name": "Alice", "phone": "+1555000"})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("activate with client coordinates", func(t *testing.T) {
		var status sosStatus
		w := e.do(t, http.MethodPost, "/api/sos/activate", gin.H{"latitude": 1.0, "longitude": 2.0})
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &status)
		assert.True(t, status.Active)
		assert.Equal(t, "manual", status.Trigger)
		require.NotNil(t, status.Location)
		assert.Equal(t, 1.0, status.Location.Latitude)
		assert.True(t, status.Recording)

		var events []models.SOSEvent
		decodeData(t, e.do(t, http.MethodGet, "/api/sos/events", nil), &events)
		require.Len(t, events, 1)
		assert.Contains(t, events[0].MessageSent, "q=1,2")
		assert.Equal(t, []string{"Alice"}, events[0].NotifiedNames())
	})

	t.Run("audio chunks are accepted while recording", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sos/audio", bytes.NewReader([]byte("chunk")))
		for _, ck := range e.cookies {
			req.AddCookie(ck)
		}
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("deactivate", func(t *testing.T) {
		var status sosStatus
		w := e.do(t, http.MethodPost, "/api/sos/deactivate", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &status)
		assert.False(t, status.Active)
		assert.False(t, status.Recording)
	})
}

func TestSensorEndpoints(t *testing.T) {
	strongShake := func(base float64) []gin.H {
		// 首个样本建立基线，随后三次大增量
		return []gin.H{
			{"x": base, "y": 0, "z": 0, "timestampMillis": 1000},
			{"x": base + 20, "y": 0, "z": 0, "timestampMillis": 1100},
			{"x": base, "y": 0, "z": 0, "timestampMillis": 1200},
			{"x": base + 20, "y": 0, "z": 0, "timestampMillis": 1300},
		}
	}

	t.Run("shake samples trigger sos", func(t *testing.T) {
		e := newTestEnv(t)
		e.signUp(t)

		var res struct {
			Triggered bool `json:"triggered"`
		}
		w := e.do(t, http.MethodPost, "/api/sensors/motion", gin.H{"samples": strongShake(0)})
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &res)
		assert.True(t, res.Triggered)

		var events []models.SOSEvent
		decodeData(t, e.do(t, http.MethodGet, "/api/sos/events", nil), &events)
		require.Len(t, events, 1)
		assert.Equal(t, "shake", events[0].TriggerType)
	})

	t.Run("disabled shake detection ignores samples", func(t *testing.T) {
		e := newTestEnv(t)
		e.signUp(t)

		w := e.do(t, http.MethodPatch, "/api/settings", gin.H{"shakeSosEnabled": false})
		require.Equal(t, http.StatusOK, w.Code)

		var res struct {
			Triggered bool `json:"triggered"`
		}
		w = e.do(t, http.MethodPost, "/api/sensors/motion", gin.H{"samples": strongShake(0)})
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &res)
		assert.False(t, res.Triggered)

		var events []models.SOSEvent
		decodeData(t, e.do(t, http.MethodGet, "/api/sos/events", nil), &events)
		assert.Empty(t, events)
	})

	t.Run("sos key sequence triggers", func(t *testing.T) {
		e := newTestEnv(t)
		e.signUp(t)

		keys := []gin.H{
			{"key": "S", "timestampMillis": 1000},
			{"key": "o", "timestampMillis": 1500},
			{"key": "s", "timestampMillis": 2000},
		}
		var res struct {
			Triggered bool `json:"triggered"`
		}
		w := e.do(t, http.MethodPost, "/api/sensors/keys", gin.H{"keys": keys})
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &res)
		assert.True(t, res.Triggered)

		var events []models.SOSEvent
		decodeData(t, e.do(t, http.MethodGet, "/api/sos/events", nil), &events)
		require.Len(t, events, 1)
		assert.Equal(t, "keyboard", events[0].TriggerType)
	})

	t.Run("disabled keyboard detection ignores keys", func(t *testing.T) {
		e := newTestEnv(t)
		e.signUp(t)

		w := e.do(t, http.MethodPatch, "/api/settings", gin.H{"keyboardSosEnabled": false})
		require.Equal(t, http.StatusOK, w.Code)

		keys := []gin.H{
			{"key": "s", "timestampMillis": 1000},
			{"key": "o", "timestampMillis": 1500},
			{"key": "s", "timestampMillis": 2000},
		}
		var res struct {
			Triggered bool `json:"triggered"`
		}
		w = e.do(t, http.MethodPost, "/api/sensors/keys", gin.H{"keys": keys})
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &res)
		assert.False(t, res.Triggered)
	})
}
