package election

import "time"

// DefaultNotificationTTL is how long a notification stays visible.
const DefaultNotificationTTL = 5 * time.Second

// NoticeKind is the severity of a notification.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeWarning
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	default:
		return "error"
	}
}

// Notification is a transient, non-blocking message for the user.
type Notification struct {
	Kind      NoticeKind
	Message   string
	CreatedAt time.Time
}

// Expired reports whether n should no longer be shown at now.
func (n Notification) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(n.CreatedAt) >= ttl
}
