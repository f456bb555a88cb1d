package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "praxis/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSubjectID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSubjectID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseSubjectID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseSubjectID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, SubjectID(validUUID), id)
	})
}

// TestParseID_SecurityInvariants validates trust boundary parsing rules:
// parsing must reject attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE profiles;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400​-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubjectID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types share identical
// parsing behavior. Inconsistent validation across ID types would create
// holes at the API boundary.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errSubject := ParseSubjectID(validUUID)
		_, errOperation := ParseOperationID(validUUID)
		_, errActor := ParseActorID(validUUID)
		_, errRecipient := ParseRecipientID(validUUID)

		require.NoError(t, errSubject)
		require.NoError(t, errOperation)
		require.NoError(t, errActor)
		require.NoError(t, errRecipient)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errSubject := ParseSubjectID(input)
			_, errOperation := ParseOperationID(input)
			_, errActor := ParseActorID(input)
			_, errRecipient := ParseRecipientID(input)

			require.Error(t, errSubject)
			require.Error(t, errOperation)
			require.Error(t, errActor)
			require.Error(t, errRecipient)
		})
	}
}

// TestTypeDistinction verifies the compiler enforces type safety.
func TestTypeDistinction(t *testing.T) {
	subjectID := SubjectID(uuid.New())
	operationID := OperationID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ SubjectID = operationID   // compile error
	// var _ OperationID = subjectID   // compile error

	assert.NotEqual(t, uuid.UUID(subjectID), uuid.UUID(operationID))
}

func TestID_JSONRoundTrip(t *testing.T) {
	type payload struct {
		Operation OperationID `json:"operation_id"`
		Subject   SubjectID   `json:"subject_id"`
	}

	in := payload{Operation: NewOperationID(), Subject: SubjectID(uuid.New())}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), in.Operation.String())

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestID_JSONRejectsNil(t *testing.T) {
	var out struct {
		Subject SubjectID `json:"subject_id"`
	}
	err := json.Unmarshal([]byte(`{"subject_id":"00000000-0000-0000-0000-000000000000"}`), &out)
	require.Error(t, err)
}
