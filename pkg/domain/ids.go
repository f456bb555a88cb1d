// Package domain holds shared domain primitives: typed identifiers and the
// closed vocabularies the engine validates at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "praxis/pkg/domain-errors"
)

// Typed IDs prevent cross-type assignment at compile time: an OperationID can
// never be passed where a SubjectID is expected. Construct via Parse* at trust
// boundaries to enforce validity; direct casting bypasses validation.
//
// Invariant: IDs must be valid, non-nil UUIDs.
type (
	// SubjectID identifies the practitioner profile an update targets.
	SubjectID uuid.UUID

	// OperationID identifies one update operation end to end: the audit
	// trail, the rollback snapshot and the sync queue all correlate on it.
	OperationID uuid.UUID

	// ActorID identifies who initiated an update (practitioner or staff).
	ActorID uuid.UUID

	// RecipientID identifies a notification recipient.
	RecipientID uuid.UUID
)

// NewOperationID generates a fresh operation identifier.
func NewOperationID() OperationID {
	return OperationID(uuid.New())
}

// ParseSubjectID validates and returns a SubjectID.
func ParseSubjectID(raw string) (SubjectID, error) {
	u, err := parseUUID(raw, "subject id")
	return SubjectID(u), err
}

// ParseOperationID validates and returns an OperationID.
func ParseOperationID(raw string) (OperationID, error) {
	u, err := parseUUID(raw, "operation id")
	return OperationID(u), err
}

// ParseActorID validates and returns an ActorID.
func ParseActorID(raw string) (ActorID, error) {
	u, err := parseUUID(raw, "actor id")
	return ActorID(u), err
}

// ParseRecipientID validates and returns a RecipientID.
func ParseRecipientID(raw string) (RecipientID, error) {
	u, err := parseUUID(raw, "recipient id")
	return RecipientID(u), err
}

func parseUUID(raw, kind string) (uuid.UUID, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return u, nil
}

func (id SubjectID) String() string   { return uuid.UUID(id).String() }
func (id OperationID) String() string { return uuid.UUID(id).String() }
func (id ActorID) String() string     { return uuid.UUID(id).String() }
func (id RecipientID) String() string { return uuid.UUID(id).String() }

func (id SubjectID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id OperationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RecipientID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text round-tripping keeps typed IDs usable directly in JSON-tagged structs.

func (id SubjectID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *SubjectID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubjectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id OperationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *OperationID) UnmarshalText(b []byte) error {
	parsed, err := ParseOperationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ActorID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *ActorID) UnmarshalText(b []byte) error {
	parsed, err := ParseActorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id RecipientID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *RecipientID) UnmarshalText(b []byte) error {
	parsed, err := ParseRecipientID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
