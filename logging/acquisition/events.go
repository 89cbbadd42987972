package acquisition

import (
	"context"

	"cardclash/server/logging"
)

const (
	// EventRoll is emitted for every completed roll.
	EventRoll logging.EventType = "acquisition.roll"
	// EventPityTriggered is emitted when the guarantee forces a roll's tier.
	EventPityTriggered logging.EventType = "acquisition.pity_triggered"
)

// RollPayload captures a single gacha outcome.
type RollPayload struct {
	Rarity    string `json:"rarity"`
	Symbol    string `json:"symbol,omitempty"`
	RollCount int    `json:"rollCount"`
	Pity      bool   `json:"pity,omitempty"`
}

// Roll publishes an acquisition.roll event.
func Roll(ctx context.Context, pub logging.Publisher, player logging.EntityRef, payload RollPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoll,
		Actor:    player,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryAcquisition,
		Payload:  payload,
	})
}

// PityTriggered publishes an acquisition.pity_triggered event.
func PityTriggered(ctx context.Context, pub logging.Publisher, player logging.EntityRef, payload RollPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPityTriggered,
		Actor:    player,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryAcquisition,
		Payload:  payload,
	})
}
