package notify

import (
	"fmt"
	"time"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
)

// Payload is the notification content handed to senders. Channel workers
// render it; the engine only decides who gets it and why.
type Payload struct {
	OperationID id.OperationID `json:"operation_id"`
	SubjectID   id.SubjectID   `json:"subject_id"`
	Section     models.Section `json:"section"`
	Impact      models.Impact  `json:"impact"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// BuildPayload renders the stakeholder-facing message for an applied change.
// The wording is per section because stakeholders act differently on each:
// an availability change means rechecking appointments, a credentials change
// means reviewing whether to keep an engagement at all.
func BuildPayload(op *models.SyncOperation) Payload {
	title, body := describeSection(op.Section)
	return Payload{
		OperationID: op.OperationID,
		SubjectID:   op.SubjectID,
		Section:     op.Section,
		Impact:      op.Impact,
		Title:       title,
		Body:        body,
		OccurredAt:  op.QueuedAt,
	}
}

func describeSection(section models.Section) (title, body string) {
	switch section {
	case models.SectionCredentials:
		return "Professional credentials updated",
			"The provider's licenses or certifications have changed. Review your upcoming engagements with them."
	case models.SectionServiceOffering:
		return "Service offering changed",
			"The services or consultation formats this provider offers have changed. Existing bookings may be affected."
	case models.SectionAvailability:
		return "Availability changed",
			"The provider's bookable hours have changed. Check that your upcoming appointments still fit."
	case models.SectionStatus:
		return "Provider status changed",
			"The provider's marketplace status has changed. This may affect whether they can accept new work."
	case models.SectionSpecialties:
		return "Specialties updated",
			"The provider's listed areas of expertise have changed."
	default:
		return fmt.Sprintf("Profile %s updated", section),
			"A section of the provider's profile has changed."
	}
}
