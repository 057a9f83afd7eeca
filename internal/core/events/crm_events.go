package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionExpiredEvent      = "session.expired"
	AccessRequestedEvent     = "access.requested"
	AccessGrantedEvent       = "access.granted"
	InteractionRecordedEvent = "interaction.recorded"
)

// NewSessionExpiredEvent fires when the auto-logout timer closes a working
// session. Subscribers surface the notification to the user.
func NewSessionExpiredEvent(username string, firstLogin time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      SessionExpiredEvent,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"user_name":   username,
			"first_login": firstLogin,
		},
	}
}

func NewAccessRequestedEvent(username string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      AccessRequestedEvent,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"user_name": username,
		},
	}
}

func NewAccessGrantedEvent(username, grantedBy string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      AccessGrantedEvent,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"user_name":  username,
			"granted_by": grantedBy,
		},
	}
}

func NewInteractionRecordedEvent(dealerCode, stage, salesPerson string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      InteractionRecordedEvent,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"dealer_code":  dealerCode,
			"stage":        stage,
			"sales_person": salesPerson,
		},
	}
}
