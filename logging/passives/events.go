package passives

import (
	"context"

	"cardclash/server/logging"
)

const (
	// EventProc is emitted when a passive successfully activates.
	EventProc logging.EventType = "passives.proc"
	// EventUnknownKind is emitted when a catalogued effect kind has no
	// resolver; the activation is skipped, never fatal.
	EventUnknownKind logging.EventType = "passives.unknown_kind"
)

// ProcPayload captures one passive activation.
type ProcPayload struct {
	PassiveID  string  `json:"passiveId"`
	Kind       string  `json:"kind"`
	Trigger    string  `json:"trigger"`
	Magnitude  float64 `json:"magnitude,omitempty"`
	DurationMs int64   `json:"durationMs,omitempty"`
	ProcCount  int     `json:"procCount"`
}

// Proc publishes a passives.proc event.
func Proc(ctx context.Context, pub logging.Publisher, tick uint64, owner, target logging.EntityRef, payload ProcPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProc,
		Tick:     tick,
		Actor:    owner,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPassives,
		Payload:  payload,
	})
}

// UnknownKind publishes a warning for an unrecognized effect kind.
func UnknownKind(ctx context.Context, pub logging.Publisher, tick uint64, owner logging.EntityRef, kind string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUnknownKind,
		Tick:     tick,
		Actor:    owner,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryPassives,
		Payload:  map[string]string{"kind": kind},
	})
}
