package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"praxis/internal/profile/models"
	profilestore "praxis/internal/profile/store/profile"
	id "praxis/pkg/domain"
)

// SeedDemoProfile creates a demo subject with a few populated sections so a
// dev instance has something to update against.
func SeedDemoProfile(ps *profilestore.MemoryStore) id.SubjectID {
	now := time.Now()
	subjectID := id.SubjectID(uuid.New())
	_ = ps.CreateProfile(context.Background(), subjectID)

	_ = ps.WriteSection(context.Background(), subjectID, models.SectionBio,
		json.RawMessage(`{"headline":"Family law, 12 years","summary":"Mediation-first practice."}`), now)
	_ = ps.WriteSection(context.Background(), subjectID, models.SectionStatus,
		json.RawMessage(`"active"`), now)
	_ = ps.WriteSection(context.Background(), subjectID, models.SectionLanguages,
		json.RawMessage(`["en","fr"]`), now)

	return subjectID
}
