package reminder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medpal/assist-api/internal/model"
	"github.com/medpal/assist-api/internal/repository"
	apperrors "github.com/medpal/assist-api/pkg/errors"
	"github.com/medpal/assist-api/pkg/logger"
)

// Service owns the reminder collections for the session. The in-memory
// state is authoritative; every mutation is written through to the local
// store, and a failed write is logged but never surfaced. Collections are
// loaded from the store on first touch, with malformed data degrading to
// an empty collection.
type Service struct {
	store  repository.ReminderStore
	logger *logger.Logger

	mu          sync.Mutex
	collections map[uuid.UUID][]*model.Reminder
}

func NewService(store repository.ReminderStore, logger *logger.Logger) *Service {
	return &Service{
		store:       store,
		logger:      logger,
		collections: make(map[uuid.UUID][]*model.Reminder),
	}
}

// Add appends a new active reminder. Empty medicine name or time is a
// no-op, matching form semantics where incomplete submissions are
// ignored.
func (s *Service) Add(ownerID uuid.UUID, medicineName, timeOfDay string) (*model.Reminder, error) {
	medicineName = strings.TrimSpace(medicineName)
	if medicineName == "" || timeOfDay == "" {
		return nil, nil
	}
	if !model.ValidTimeOfDay(timeOfDay) {
		return nil, apperrors.Validation("time must be a 24-hour HH:MM value")
	}

	reminder := &model.Reminder{
		ID:           uuid.New(),
		MedicineName: medicineName,
		Time:         timeOfDay,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.collectionLocked(ownerID)
	s.collections[ownerID] = append(collection, reminder)
	s.persistLocked(ownerID)

	return reminder, nil
}

// Delete removes the reminder if present. Deleting an unknown id is not
// an error.
func (s *Service) Delete(ownerID, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.collectionLocked(ownerID)
	kept := collection[:0]
	for _, r := range collection {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.collections[ownerID] = kept
	s.persistLocked(ownerID)
}

// Toggle flips the active flag and returns the updated reminder, or nil
// when the id is unknown.
func (s *Service) Toggle(ownerID, id uuid.UUID) *model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.collectionLocked(ownerID) {
		if r.ID == id {
			r.IsActive = !r.IsActive
			s.persistLocked(ownerID)
			return r
		}
	}
	return nil
}

// List returns the owner's reminders sorted ascending by time of day;
// reminders sharing a time sort newest first.
func (s *Service) List(ownerID uuid.UUID) []*model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection := s.collectionLocked(ownerID)
	out := make([]*model.Reminder, len(collection))
	copy(out, collection)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

// DueAt returns every active reminder across all owners whose time equals
// the given HH:MM minute.
func (s *Service) DueAt(minute string) []model.FiredReminder {
	owners, err := s.store.Owners()
	if err != nil {
		s.logger.Error(err, "failed to list reminder owners")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(owners)+len(s.collections))
	for id := range s.collections {
		seen[id] = true
	}
	for _, id := range owners {
		if !seen[id] {
			s.collectionLocked(id)
		}
	}

	var due []model.FiredReminder
	for ownerID, collection := range s.collections {
		for _, r := range collection {
			if r.IsActive && r.Time == minute {
				due = append(due, model.FiredReminder{
					UserID:   ownerID,
					Reminder: r,
					FiredAt:  time.Now(),
				})
			}
		}
	}

	return due
}

// FormatDisplayTime converts 24-hour HH:MM to a 12-hour display string.
// Hour 0 displays as 12 AM and hour 12 as 12 PM.
func FormatDisplayTime(timeOfDay string) string {
	parts := strings.SplitN(timeOfDay, ":", 2)
	if len(parts) != 2 {
		return timeOfDay
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return timeOfDay
	}

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}

	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}

	return fmt.Sprintf("%d:%s %s", displayHour, parts[1], suffix)
}

// collectionLocked returns the cached collection, loading it from the
// store on first touch. Store failures degrade to an empty collection.
func (s *Service) collectionLocked(ownerID uuid.UUID) []*model.Reminder {
	if collection, ok := s.collections[ownerID]; ok {
		return collection
	}

	collection, err := s.store.Load(ownerID)
	if err != nil {
		s.logger.Error(err, "failed to load reminders, starting empty", "user_id", ownerID.String())
		collection = nil
	}
	s.collections[ownerID] = collection
	return collection
}

// persistLocked writes the collection through to the store. Failures are
// logged only; the in-memory state stays authoritative for the session.
func (s *Service) persistLocked(ownerID uuid.UUID) {
	if err := s.store.Save(ownerID, s.collections[ownerID]); err != nil {
		s.logger.Error(err, "failed to persist reminders", "user_id", ownerID.String())
	}
}
