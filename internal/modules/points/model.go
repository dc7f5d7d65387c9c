// README: Loyalty point balance and activity ledger entries.
package points

import (
	"errors"
	"time"
)

var ErrNoLedger = errors.New("user kind has no points ledger")

type Activity struct {
	Points          int       `json:"points"`
	ActivityType    string    `json:"activity_type"`
	RelatedEntityID *string   `json:"related_entity_id,omitempty"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}
