package enums

import "fmt"

// NotificationType categorizes user-facing notifications.
type NotificationType string

const (
	NotificationOrderCreated      NotificationType = "ORDER_CREATED"
	NotificationOrderPaid         NotificationType = "ORDER_PAID"
	NotificationOrderStatusUpdate NotificationType = "ORDER_STATUS_UPDATE"
	NotificationTravelReminder    NotificationType = "TRAVEL_REMINDER"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderCreated,
	NotificationOrderPaid,
	NotificationOrderStatusUpdate,
	NotificationTravelReminder,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
