package record

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal/assist-api/internal/middleware"
	"github.com/medpal/assist-api/internal/model"
	recordsvc "github.com/medpal/assist-api/internal/service/record"
	apperrors "github.com/medpal/assist-api/pkg/errors"
	"github.com/medpal/assist-api/pkg/logger"
	"github.com/medpal/assist-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test", "record_handler")

type memRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*model.HealthRecord
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[uuid.UUID]*model.HealthRecord{}}
}

func (m *memRepo) Create(ctx context.Context, record *model.HealthRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = uuid.New()
	m.records[record.ID] = record
	return nil
}

func (m *memRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.HealthRecord
	for _, record := range m.records {
		if record.UserID == userID {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memRepo) Update(ctx context.Context, userID, id uuid.UUID, patch *model.UpdateHealthRecordRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok || record.UserID != userID {
		return apperrors.NotFound("health record", nil)
	}
	if patch.Diagnosis != nil {
		record.Diagnosis = *patch.Diagnosis
	}
	if patch.PatientName != nil {
		record.PatientName = *patch.PatientName
	}
	return nil
}

func (m *memRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok || record.UserID != userID {
		return apperrors.NotFound("health record", nil)
	}
	delete(m.records, id)
	return nil
}

func setupRouter(t *testing.T, identity *model.Identity) (*gin.Engine, *memRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemRepo()
	svc := recordsvc.NewService(repo, logger.NewLogger(nil), testMetrics)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if identity != nil {
			c.Set(middleware.ContextIdentity, identity)
		}
		c.Next()
	})

	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, repo
}

func TestCreateRecord(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, repo := setupRouter(t, identity)

	body, _ := json.Marshal(model.CreateHealthRecordRequest{
		PatientName: "Jordan Patel",
		Age:         42,
		Symptoms:    "fever, cough",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, repo.records, 1)
}

func TestCreateRecordInvalidAge(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, repo := setupRouter(t, identity)

	body, _ := json.Marshal(map[string]interface{}{
		"patient_name": "Jordan Patel",
		"age":          150,
		"symptoms":     "fever",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.records)
}

func TestListRecordsSorted(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, repo := setupRouter(t, identity)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"oldest", "middle", "newest"} {
		id := uuid.New()
		repo.records[id] = &model.HealthRecord{
			ID:          id,
			UserID:      identity.UserID,
			PatientName: name,
			Age:         40,
			Symptoms:    "headache",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			PatientName string `json:"patient_name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "newest", resp.Data[0].PatientName)
	assert.Equal(t, "oldest", resp.Data[2].PatientName)
}

func TestUpdateRecord(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, repo := setupRouter(t, identity)

	id := uuid.New()
	repo.records[id] = &model.HealthRecord{
		ID:          id,
		UserID:      identity.UserID,
		PatientName: "Jordan Patel",
		Age:         42,
		Symptoms:    "fever",
	}

	body, _ := json.Marshal(map[string]string{"diagnosis": "influenza"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/records/"+id.String(), bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "influenza", repo.records[id].Diagnosis)
	assert.Equal(t, "Jordan Patel", repo.records[id].PatientName)
}

func TestUpdateOtherUsersRecord(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, repo := setupRouter(t, identity)

	id := uuid.New()
	repo.records[id] = &model.HealthRecord{
		ID:          id,
		UserID:      uuid.New(),
		PatientName: "Someone Else",
		Age:         50,
		Symptoms:    "cough",
	}

	body, _ := json.Marshal(map[string]string{"diagnosis": "tampered"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/records/"+id.String(), bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, repo.records[id].Diagnosis)
}

func TestDeleteOtherUsersRecord(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, repo := setupRouter(t, identity)

	id := uuid.New()
	repo.records[id] = &model.HealthRecord{
		ID:     id,
		UserID: uuid.New(),
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/records/"+id.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, repo.records, id)
}

func TestDeleteRecord(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New()}
	r, repo := setupRouter(t, identity)

	id := uuid.New()
	repo.records[id] = &model.HealthRecord{
		ID:     id,
		UserID: identity.UserID,
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/records/"+id.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.records)
}

func TestRecordsRequireIdentity(t *testing.T) {
	r, _ := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
