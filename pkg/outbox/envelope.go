package outbox

import (
	"encoding/json"
	"time"

	"github.com/silkmall/silkmall-backend/pkg/enums"
)

// ActorRef identifies the account that produced the event.
type ActorRef struct {
	AccountID int64             `json:"accountId"`
	Role      enums.AccountRole `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
