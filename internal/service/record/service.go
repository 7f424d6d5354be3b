package record

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medpal/assist-api/internal/model"
	"github.com/medpal/assist-api/internal/repository"
	apperrors "github.com/medpal/assist-api/pkg/errors"
	"github.com/medpal/assist-api/pkg/logger"
	"github.com/medpal/assist-api/pkg/metrics"
)

// Service mediates between the in-memory record list shown to the caller
// and the remote per-user store. Loads replace the list wholesale with a
// freshly sorted result; add prepends optimistically; update merges by id.
// A generation counter ties every in-flight load to the identity that
// started it: sign-out (or an identity switch) bumps the generation and
// late results are discarded.
type Service struct {
	repo     repository.HealthRecordRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate

	mu         sync.Mutex
	generation uint64
	owner      uuid.UUID
	records    []*model.HealthRecord
	loading    bool
	lastErr    string
}

func NewService(repo repository.HealthRecordRepository, logger *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		logger:   logger,
		metrics:  m,
		validate: validator.New(),
	}
}

// SetIdentity reacts to identity transitions: a new identity triggers an
// automatic load, sign-out clears the list immediately without any remote
// call.
func (s *Service) SetIdentity(identity *model.Identity) {
	s.mu.Lock()
	s.generation++
	if identity == nil {
		s.owner = uuid.Nil
		s.records = nil
		s.loading = false
		s.lastErr = ""
		s.mu.Unlock()
		return
	}
	owner := identity.UserID
	s.owner = owner
	s.mu.Unlock()

	go func() {
		if _, err := s.Load(context.Background(), owner); err != nil {
			s.logger.Error(err, "automatic record load failed", "user_id", owner.String())
		}
	}()
}

// Load fetches every record owned by ownerID, sorts the full result set
// most recent first, and replaces the in-memory list. On failure the
// prior list is left untouched and the error message is retained.
func (s *Service) Load(ctx context.Context, ownerID uuid.UUID) ([]*model.HealthRecord, error) {
	if ownerID == uuid.Nil {
		return nil, apperrors.Unauthorized(errors.New("user not authenticated"))
	}

	timer := time.Now()

	s.mu.Lock()
	gen := s.generation
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()

	records, err := s.repo.ListByUser(ctx, ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.metrics.RecordSyncLatency.WithLabelValues("load").Observe(time.Since(timer).Seconds())

	if gen != s.generation {
		// The identity changed while the request was in flight; the
		// response belongs to a session that no longer exists.
		s.metrics.StaleLoadsDiscarded.Inc()
		return nil, nil
	}

	if err != nil {
		s.lastErr = "failed to fetch health records"
		s.metrics.RecordSyncOperations.WithLabelValues("load", "error").Inc()
		return nil, apperrors.Unavailable(s.lastErr, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	// The shared snapshot belongs to the wired identity; a load for
	// anyone else returns its result without touching it.
	if s.owner == ownerID {
		s.records = records
	}
	s.metrics.RecordSyncOperations.WithLabelValues("load", "success").Inc()

	out := make([]*model.HealthRecord, len(records))
	copy(out, records)
	return out, nil
}

// Add writes the record remotely and, on success, prepends a locally
// timestamped copy without waiting for a reload. The client clock stands
// in for the store's until the next load observes the authoritative
// value.
func (s *Service) Add(ctx context.Context, ownerID uuid.UUID, req *model.CreateHealthRecordRequest) (*model.HealthRecord, error) {
	if ownerID == uuid.Nil {
		return nil, apperrors.Unauthorized(errors.New("user not authenticated"))
	}
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	record := &model.HealthRecord{
		UserID:        ownerID,
		PatientName:   req.PatientName,
		Age:           req.Age,
		Symptoms:      req.Symptoms,
		Diagnosis:     req.Diagnosis,
		Prescriptions: req.Prescriptions,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.metrics.RecordSyncOperations.WithLabelValues("add", "error").Inc()
		return nil, apperrors.Unavailable("failed to add health record", err)
	}

	s.mu.Lock()
	if s.owner == ownerID {
		s.records = append([]*model.HealthRecord{record}, s.records...)
	}
	s.mu.Unlock()
	s.metrics.RecordSyncOperations.WithLabelValues("add", "success").Inc()

	return record, nil
}

// Update writes only the supplied fields to the remote record and merges
// them into the matching in-memory entry. The write is scoped to the
// caller's records; an id owned by someone else reads as not found.
// Local state is unchanged on failure.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, patch *model.UpdateHealthRecordRequest) error {
	if ownerID == uuid.Nil {
		return apperrors.Unauthorized(errors.New("user not authenticated"))
	}
	if err := s.validate.Struct(patch); err != nil {
		return apperrors.Validation(err.Error())
	}

	if err := s.repo.Update(ctx, ownerID, id, patch); err != nil {
		s.metrics.RecordSyncOperations.WithLabelValues("update", "error").Inc()
		return storeError("failed to update health record", err)
	}

	s.mu.Lock()
	for _, record := range s.records {
		if record.ID != id {
			continue
		}
		applyPatch(record, patch)
		break
	}
	s.mu.Unlock()
	s.metrics.RecordSyncOperations.WithLabelValues("update", "success").Inc()

	return nil
}

// Remove deletes the remote record by id and drops the local entry on
// success. The delete is scoped to the caller's records.
func (s *Service) Remove(ctx context.Context, ownerID, id uuid.UUID) error {
	if ownerID == uuid.Nil {
		return apperrors.Unauthorized(errors.New("user not authenticated"))
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		s.metrics.RecordSyncOperations.WithLabelValues("remove", "error").Inc()
		return storeError("failed to delete health record", err)
	}

	s.mu.Lock()
	kept := s.records[:0]
	for _, record := range s.records {
		if record.ID != id {
			kept = append(kept, record)
		}
	}
	s.records = kept
	s.mu.Unlock()
	s.metrics.RecordSyncOperations.WithLabelValues("remove", "success").Inc()

	return nil
}

// Snapshot returns a copy of the current in-memory list.
func (s *Service) Snapshot() []*model.HealthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Service) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Service) snapshotLocked() []*model.HealthRecord {
	out := make([]*model.HealthRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Service) validateCreate(req *model.CreateHealthRecordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0]
			if field.Field() == "Age" {
				return apperrors.Validation("age must be between 1 and 120")
			}
			return apperrors.Validation(fmt.Sprintf("%s is required", field.Field()))
		}
		return apperrors.Validation(err.Error())
	}
	return nil
}

// storeError passes AppErrors from the repository through untouched
// (ownership misses surface as not-found) and wraps everything else as a
// remote-store failure.
func storeError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Unavailable(message, err)
}

func applyPatch(record *model.HealthRecord, patch *model.UpdateHealthRecordRequest) {
	if patch.PatientName != nil {
		record.PatientName = *patch.PatientName
	}
	if patch.Age != nil {
		record.Age = *patch.Age
	}
	if patch.Symptoms != nil {
		record.Symptoms = *patch.Symptoms
	}
	if patch.Diagnosis != nil {
		record.Diagnosis = *patch.Diagnosis
	}
	if patch.Prescriptions != nil {
		record.Prescriptions = *patch.Prescriptions
	}
}
