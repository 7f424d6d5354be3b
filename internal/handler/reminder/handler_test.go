package reminder

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal/assist-api/internal/middleware"
	"github.com/medpal/assist-api/internal/model"
	remindersvc "github.com/medpal/assist-api/internal/service/reminder"
	"github.com/medpal/assist-api/pkg/logger"
)

type memStore struct {
	data map[uuid.UUID][]*model.Reminder
}

func (m *memStore) Load(userID uuid.UUID) ([]*model.Reminder, error) {
	return m.data[userID], nil
}

func (m *memStore) Save(userID uuid.UUID, reminders []*model.Reminder) error {
	m.data[userID] = reminders
	return nil
}

func (m *memStore) Owners() ([]uuid.UUID, error) {
	owners := make([]uuid.UUID, 0, len(m.data))
	for id := range m.data {
		owners = append(owners, id)
	}
	return owners, nil
}

func (m *memStore) Close() error { return nil }

func setupRouter(t *testing.T, identity *model.Identity) (*gin.Engine, *remindersvc.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := remindersvc.NewService(&memStore{data: map[uuid.UUID][]*model.Reminder{}}, logger.NewLogger(nil))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if identity != nil {
			c.Set(middleware.ContextIdentity, identity)
		}
		c.Next()
	})

	NewHandler(svc, nil).RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func TestCreateReminder(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, svc := setupRouter(t, identity)

	body, _ := json.Marshal(model.CreateReminderRequest{MedicineName: "Aspirin", Time: "08:00"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reminders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, svc.List(identity.UserID), 1)
}

func TestCreateReminderMissingFields(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, svc := setupRouter(t, identity)

	body, _ := json.Marshal(model.CreateReminderRequest{MedicineName: "", Time: "08:00"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reminders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "medicine name and time are required", resp.Message)
	assert.Empty(t, svc.List(identity.UserID))
}

func TestCreateReminderInvalidTime(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, _ := setupRouter(t, identity)

	body, _ := json.Marshal(model.CreateReminderRequest{MedicineName: "Aspirin", Time: "25:00"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reminders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRemindersSortedWithDisplayTime(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, svc := setupRouter(t, identity)

	_, err := svc.Add(identity.UserID, "Evening pill", "21:00")
	require.NoError(t, err)
	_, err = svc.Add(identity.UserID, "Aspirin", "08:00")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reminders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Reminders []struct {
				MedicineName string `json:"medicine_name"`
				DisplayTime  string `json:"display_time"`
			} `json:"reminders"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Reminders, 2)
	assert.Equal(t, "Aspirin", resp.Data.Reminders[0].MedicineName)
	assert.Equal(t, "8:00 AM", resp.Data.Reminders[0].DisplayTime)
	assert.Equal(t, "9:00 PM", resp.Data.Reminders[1].DisplayTime)
}

func TestToggleReminder(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, svc := setupRouter(t, identity)

	created, err := svc.Add(identity.UserID, "Aspirin", "08:00")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reminders/"+created.ID.String()+"/toggle", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.List(identity.UserID)[0].IsActive)
}

func TestToggleUnknownReminder(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, _ := setupRouter(t, identity)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reminders/"+uuid.NewString()+"/toggle", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteReminderIdempotent(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, svc := setupRouter(t, identity)

	created, err := svc.Add(identity.UserID, "Aspirin", "08:00")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/reminders/"+created.ID.String(), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Empty(t, svc.List(identity.UserID))
}

func TestRequiresIdentity(t *testing.T) {
	r, _ := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reminders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
