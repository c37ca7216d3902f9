package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contestpulse/contest-pulse/pkg/logger"
	"github.com/contestpulse/contest-pulse/pkg/models"
)

// Notifier is the local notification subsystem: best-effort delivery at or
// after the requested time, no sub-second precision guaranteed. Cancel of an
// unknown or already-fired handle is a no-op.
type Notifier interface {
	ScheduleAt(at time.Time, content models.ReminderContent) (string, error)
	Cancel(handle string) error
}

// DeliveryFunc receives the payload when a scheduled notification fires.
type DeliveryFunc func(handle string, content models.ReminderContent)

// LocalNotifier schedules in-process timers keyed by generated handles.
// Pending timers do not survive a process restart; the persisted reminder
// records let callers re-register after one.
type LocalNotifier struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	deliver DeliveryFunc
}

// NewLocalNotifier creates a notifier delivering through deliver; nil means
// log-only delivery.
func NewLocalNotifier(deliver DeliveryFunc) *LocalNotifier {
	if deliver == nil {
		deliver = func(handle string, content models.ReminderContent) {
			logger.Info("Notification fired (%s): %s - %s", handle, content.Title, content.Body)
		}
	}
	return &LocalNotifier{
		pending: make(map[string]*time.Timer),
		deliver: deliver,
	}
}

// ScheduleAt registers a notification and returns its handle.
func (n *LocalNotifier) ScheduleAt(at time.Time, content models.ReminderContent) (string, error) {
	delay := time.Until(at)
	if delay < 0 {
		return "", fmt.Errorf("notification time %s is in the past", at.Format(time.RFC3339))
	}

	handle := uuid.NewString()
	n.mu.Lock()
	n.pending[handle] = time.AfterFunc(delay, func() {
		n.mu.Lock()
		delete(n.pending, handle)
		n.mu.Unlock()
		n.deliver(handle, content)
	})
	n.mu.Unlock()

	logger.Debug("Scheduled notification %s for %s", handle, at.Format(time.RFC3339))
	return handle, nil
}

// Cancel stops a pending notification. Unknown handles are ignored.
func (n *LocalNotifier) Cancel(handle string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if timer, ok := n.pending[handle]; ok {
		timer.Stop()
		delete(n.pending, handle)
		logger.Debug("Cancelled notification %s", handle)
	}
	return nil
}

// PendingCount reports the number of timers not yet fired or cancelled.
func (n *LocalNotifier) PendingCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
