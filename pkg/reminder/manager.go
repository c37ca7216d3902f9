package reminder

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/contestpulse/contest-pulse/pkg/cache"
	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/models"
	"github.com/contestpulse/contest-pulse/pkg/notify"
)

// ErrInvalidTime is returned when a reminder is requested for a non-future
// instant. It is surfaced to the caller, never silently corrected.
var ErrInvalidTime = errors.New("reminder time must be in the future")

// listKey is the single key in the reminder-list bucket holding the flat
// display list.
const listKey = "reminders"

// Manager maps an event identity to a scheduled local notification,
// enforcing at most one active reminder per contest id. The per-contest
// record and the flat list live under separate store keys; the two writes
// are not atomic, so a crash between notification scheduling and
// persistence can leave a dangling notification with no record. Known gap.
type Manager struct {
	store    cache.Store
	notifier notify.Notifier
	now      func() time.Time

	// Serializes schedule/cancel so concurrent schedules for the same
	// contest end in a last-writer-wins state.
	mu sync.Mutex
}

// NewManager wires the manager against its store and notifier.
func NewManager(store cache.Store, notifier notify.Notifier) *Manager {
	return &Manager{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Schedule registers a reminder for contestId firing at trigger. Any
// existing reminder for the same contest is retired first. Returns the
// notification handle. If the notifier rejects the request, nothing is
// persisted so the UI never shows an entry with no notification behind it.
func (m *Manager) Schedule(contestId, contestName string, trigger time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !trigger.After(m.now()) {
		return "", ErrInvalidTime
	}

	// Replace semantics: retire the previous reminder before creating
	// the new one.
	if err := m.cancelLocked(contestId); err != nil {
		return "", err
	}

	content := models.ReminderContent{
		Title: "Contest Reminder",
		Body:  fmt.Sprintf("%s starts soon!", contestName),
	}
	handle, err := m.notifier.ScheduleAt(trigger, content)
	if err != nil {
		return "", fmt.Errorf("failed to schedule notification: %w", err)
	}

	rec := models.Reminder{
		Id:          handle,
		ContestId:   contestId,
		ContestName: contestName,
		Trigger:     models.ReminderTrigger{Date: trigger.UTC().Format(time.RFC3339)},
		Content:     content,
		CreatedAt:   m.now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal reminder: %w", err)
	}
	if err := m.store.Put(cache.RemindersBucket, contestId, data); err != nil {
		// Undo the live notification so storage faults don't leak timers.
		m.notifier.Cancel(handle)
		return "", fmt.Errorf("failed to persist reminder: %w", err)
	}

	reminders, err := m.loadList()
	if err != nil {
		logger.Error("Failed to load reminder list: %v", err)
		reminders = []models.Reminder{}
	}
	reminders = append(reminders, rec)
	if err := m.saveList(reminders); err != nil {
		logger.Error("Failed to update reminder list for %s: %v", contestId, err)
	}

	logger.Info("Reminder scheduled for %s at %s", contestId, rec.Trigger.Date)
	return handle, nil
}

// Cancel retires the reminder for contestId: cancels the underlying
// notification, deletes the per-contest record and removes the list entry.
// No-op when no reminder exists.
func (m *Manager) Cancel(contestId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelLocked(contestId)
}

func (m *Manager) cancelLocked(contestId string) error {
	data, found, err := m.store.Get(cache.RemindersBucket, contestId)
	if err != nil {
		return fmt.Errorf("failed to look up reminder for %s: %w", contestId, err)
	}
	if !found {
		return nil
	}

	var rec models.Reminder
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("reminder record corrupt for %s: %w", contestId, err)
	}

	if err := m.notifier.Cancel(rec.Id); err != nil {
		return fmt.Errorf("failed to cancel notification %s: %w", rec.Id, err)
	}
	if err := m.store.Delete(cache.RemindersBucket, contestId); err != nil {
		return fmt.Errorf("failed to delete reminder for %s: %w", contestId, err)
	}

	reminders, err := m.loadList()
	if err != nil {
		return err
	}
	kept := reminders[:0]
	for _, r := range reminders {
		if r.ContestId != contestId {
			kept = append(kept, r)
		}
	}
	if err := m.saveList(kept); err != nil {
		return err
	}

	logger.Info("Reminder cancelled for %s", contestId)
	return nil
}

// List returns the persisted flat reminder list in insertion order.
func (m *Manager) List() ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadList()
}

func (m *Manager) loadList() ([]models.Reminder, error) {
	data, found, err := m.store.Get(cache.ReminderListBucket, listKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read reminder list: %w", err)
	}
	if !found {
		return []models.Reminder{}, nil
	}
	var reminders []models.Reminder
	if err := json.Unmarshal(data, &reminders); err != nil {
		return nil, fmt.Errorf("reminder list corrupt: %w", err)
	}
	return reminders, nil
}

func (m *Manager) saveList(reminders []models.Reminder) error {
	data, err := json.Marshal(reminders)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder list: %w", err)
	}
	return m.store.Put(cache.ReminderListBucket, listKey, data)
}
