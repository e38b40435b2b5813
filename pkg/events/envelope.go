package events

import (
	"encoding/json"

	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/wire"
)

// Envelope is the serializable form of an event: a flat record with the
// shared header plus whichever subclass fields apply. It is the persistence
// and replay format used across process boundaries; empty fields are
// omitted.
type Envelope struct {
	Type        string `json:"type" bson:"type"`
	WorkspaceID string `json:"workspaceId,omitempty" bson:"workspaceId,omitempty"`
	Group       string `json:"group,omitempty" bson:"group,omitempty"`
	BlockID     string `json:"blockId,omitempty" bson:"blockId,omitempty"`

	// Create / Delete
	Snapshot *wire.Block `json:"snapshot,omitempty" bson:"snapshot,omitempty"`

	// Move
	OldLocation *wire.Location `json:"oldLocation,omitempty" bson:"oldLocation,omitempty"`
	NewLocation *wire.Location `json:"newLocation,omitempty" bson:"newLocation,omitempty"`

	// Change
	Element  string `json:"element,omitempty" bson:"element,omitempty"`
	Field    string `json:"field,omitempty" bson:"field,omitempty"`
	OldValue string `json:"oldValue,omitempty" bson:"oldValue,omitempty"`
	NewValue string `json:"newValue,omitempty" bson:"newValue,omitempty"`
}

// ToJSON serializes an event to its envelope JSON.
func ToJSON(ev Event) ([]byte, error) {
	return json.Marshal(ev.Envelope())
}

// FromJSON deserializes envelope JSON back into a concrete event.
func FromJSON(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidEvent, err, "decode envelope")
	}
	return env.Event()
}

// Event converts an envelope into the concrete event it describes.
func (env Envelope) Event() (Event, error) {
	var ev Event
	switch env.Type {
	case TypeCreate:
		if env.Snapshot == nil {
			return nil, errors.New(errors.ErrCodeInvalidEvent, "create envelope is missing its snapshot")
		}
		ev = NewCreate(env.BlockID, *env.Snapshot)
	case TypeDelete:
		if env.Snapshot == nil {
			return nil, errors.New(errors.ErrCodeInvalidEvent, "delete envelope is missing its snapshot")
		}
		ev = NewDelete(env.BlockID, *env.Snapshot)
	case TypeMove:
		if env.OldLocation == nil || env.NewLocation == nil {
			return nil, errors.New(errors.ErrCodeInvalidEvent, "move envelope is missing a location")
		}
		mv := NewMove(env.BlockID, *env.OldLocation)
		mv.RecordNew(*env.NewLocation)
		ev = mv
	case TypeChange:
		ev = NewChange(env.BlockID, env.Element, env.Field, env.OldValue, env.NewValue)
	default:
		return nil, errors.New(errors.ErrCodeInvalidEvent, "unknown event type %q", env.Type)
	}
	ev.SetWorkspaceID(env.WorkspaceID)
	ev.SetGroup(env.Group)
	return ev, nil
}
