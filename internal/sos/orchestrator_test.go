package sos

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"SentriSafe/internal/device"
	"SentriSafe/internal/models"
	"SentriSafe/pkg/util"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := util.InitDatabase("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func newTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user, err := models.CreateUser(db, "test@example.com", "password123", "Test User")
	require.NoError(t, err)
	return user
}

// spyProvider 记录是否被调用
type spyProvider struct {
	mu     sync.Mutex
	called bool
	coord  *device.Coordinate
}

func (s *spyProvider) GetLocation(ctx context.Context) (*device.Coordinate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.called = true
	return s.coord, nil
}

func (s *spyProvider) wasCalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.called
}

// blockingProvider 阻塞到 release 关闭才返回
type blockingProvider struct {
	release chan struct{}
	coord   *device.Coordinate
}

func (b *blockingProvider) GetLocation(ctx context.Context) (*device.Coordinate, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return b.coord, nil
	}
}

func TestComposeAlertMessage(t *testing.T) {
	t.Run("without location", func(t *testing.T) {
		msg := ComposeAlertMessage("Help me", nil)
		assert.Contains(t, msg, "Location unavailable")
		assert.NotContains(t, msg, "maps.google.com")
		assert.Contains(t, msg, "Help me")
		assert.Contains(t, msg, "EMERGENCY SOS ALERT")
	})

	t.Run("with location", func(t *testing.T) {
		loc := &device.Coordinate{Latitude: 1, Longitude: 2}
		msg := ComposeAlertMessage("Help me", loc)
		assert.Contains(t, msg, "https://maps.google.com/maps?q=1,2")
	})

	t.Run("fractional coordinates", func(t *testing.T) {
		loc := &device.Coordinate{Latitude: 59.3293, Longitude: 18.0686}
		assert.Contains(t, LocationLink(loc), "q=59.3293,18.0686")
	})
}

func TestActivatePersistsAlertAndEvent(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)

	_, err := models.AddContact(db, user.ID, "Alice", "+1555000", "")
	require.NoError(t, err)
	_, err = models.AddContact(db, user.ID, "Bob", "", "bob@example.com")
	require.NoError(t, err)

	o := NewOrchestrator(db, user.ID, device.NewBufferRecorder(), nil, nil, nil)
	coord := &device.Coordinate{Latitude: 1, Longitude: 2, Accuracy: 10}
	o.Activate(context.Background(), TriggerManual, &device.ClientReported{Coord: coord})

	assert.True(t, o.IsActive())
	require.NotNil(t, o.LastLocation())
	assert.Equal(t, 1.0, o.LastLocation().Latitude)

	alerts, err := models.ListAlerts(db, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTypeSOS, alerts[0].AlertType)
	assert.Equal(t, models.RiskCritical, alerts[0].RiskLevel)
	assert.False(t, alerts[0].IsRead)
	assert.Contains(t, alerts[0].Message, "q=1,2")

	events, err := models.ListSOSEvents(db, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "manual", events[0].TriggerType)
	require.NotNil(t, events[0].Latitude)
	assert.Equal(t, 1.0, *events[0].Latitude)
	assert.Equal(t, events[0].MessageSent, alerts[0].Message)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, events[0].NotifiedNames())
	assert.NotEmpty(t, events[0].IncidentID)
}

func TestActivateIsIdempotentWhileActive(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)

	o := NewOrchestrator(db, user.ID, device.NewBufferRecorder(), nil, nil, nil)
	o.Activate(context.Background(), TriggerManual)
	o.Activate(context.Background(), TriggerShake)

	alerts, err := models.ListAlerts(db, user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, alerts, 1, "second activation while active must not send again")
	assert.Equal(t, TriggerManual, o.Trigger())

	// 停用后可以重新激活
	o.Deactivate()
	o.Activate(context.Background(), TriggerKeyboard)
	alerts, err = models.ListAlerts(db, user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestActivateHonorsAutoLocationDisabled(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)

	_, err := models.UpdateSettings(db, user.ID, map[string]any{"auto_location_enabled": false})
	require.NoError(t, err)

	spy := &spyProvider{coord: &device.Coordinate{Latitude: 5, Longitude: 6}}
	o := NewOrchestrator(db, user.ID, device.NewBufferRecorder(), nil, nil, nil)
	o.Activate(context.Background(), TriggerManual, spy)

	assert.False(t, spy.wasCalled(), "location provider must not be invoked when disabled")
	assert.Nil(t, o.LastLocation())

	events, err := models.ListSOSEvents(db, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Latitude)
	assert.Nil(t, events[0].Longitude)
	assert.Contains(t, events[0].MessageSent, "Location unavailable")
}

func TestActivateHonorsAutoRecordingDisabled(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)

	_, err := models.UpdateSettings(db, user.ID, map[string]any{"auto_recording_enabled": false})
	require.NoError(t, err)

	rec := device.NewBufferRecorder()
	o := NewOrchestrator(db, user.ID, rec, nil, nil, nil)
	o.Activate(context.Background(), TriggerManual)

	assert.False(t, rec.Recording())
}

func TestDeactivateStopsRecordingAndDiscardsStaleLocation(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)

	rec := device.NewBufferRecorder()
	provider := &blockingProvider{
		release: make(chan struct{}),
		coord:   &device.Coordinate{Latitude: 9, Longitude: 9},
	}
	o := NewOrchestrator(db, user.ID, rec, nil, nil, nil)

	done := make(chan struct{})
	go func() {
		o.Activate(context.Background(), TriggerShake, provider)
		close(done)
	}()

	// 等激活标志置位（定位仍阻塞中）
	require.Eventually(t, o.IsActive, time.Second, 5*time.Millisecond)

	o.Deactivate()
	assert.False(t, o.IsActive())
	assert.False(t, rec.Recording())

	// 放行滞留的定位请求，结果必须被纪元保护丢弃
	close(provider.release)
	<-done

	assert.False(t, o.IsActive())
	assert.Nil(t, o.LastLocation(), "location resolved after deactivation must be discarded")
	assert.False(t, rec.Recording(), "recording must not start for a superseded session")
}

func TestActivateUsesDefaultCannedMessage(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)

	require.NoError(t, models.SeedDefaultMessages(db, user.ID))
	msgs, err := models.ListMessages(db, user.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	// 把第二条设为默认
	require.NoError(t, models.SetDefaultMessage(db, user.ID, msgs[1].ID))

	o := NewOrchestrator(db, user.ID, device.NewBufferRecorder(), nil, nil, nil)
	o.Activate(context.Background(), TriggerManual)

	alerts, err := models.ListAlerts(db, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, msgs[1].Text)
}

func TestActivateFallsBackWithoutDefaultMessage(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)

	o := NewOrchestrator(db, user.ID, device.NewBufferRecorder(), nil, nil, nil)
	o.Activate(context.Background(), TriggerManual)

	alerts, err := models.ListAlerts(db, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, models.FallbackAlertText)
}

func TestManagerReturnsSameOrchestratorPerUser(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, nil, nil, nil)

	a := m.Get(1)
	b := m.Get(1)
	c := m.Get(2)
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)

	m.Drop(context.Background(), 1)
	assert.NotSame(t, a, m.Get(1), "dropped orchestrator must be rebuilt")
}
