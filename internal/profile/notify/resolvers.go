package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	id "praxis/pkg/domain"
	platformstrings "praxis/pkg/platform/strings"
)

// StaticResolver returns a fixed recipient list. Used on dev instances and
// in tests where there is no booking service to ask.
type StaticResolver struct {
	recipients []id.RecipientID
}

func NewStaticResolver(recipients ...id.RecipientID) *StaticResolver {
	return &StaticResolver{recipients: recipients}
}

func (r *StaticResolver) AffectedStakeholders(_ context.Context, _ id.SubjectID) ([]id.RecipientID, error) {
	return append([]id.RecipientID(nil), r.recipients...), nil
}

// BookingResolver asks the booking service which clients hold upcoming
// engagements with the subject. Those are the stakeholders an applied
// profile change can actually disrupt.
type BookingResolver struct {
	baseURL string
	client  *http.Client
}

func NewBookingResolver(baseURL string, timeout time.Duration) *BookingResolver {
	return &BookingResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type stakeholdersResponse struct {
	RecipientIDs []string `json:"recipient_ids"`
}

func (r *BookingResolver) AffectedStakeholders(ctx context.Context, subjectID id.SubjectID) ([]id.RecipientID, error) {
	url := fmt.Sprintf("%s/internal/profiles/%s/stakeholders", r.baseURL, subjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("booking stakeholder lookup failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("booking stakeholder lookup returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed stakeholdersResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode stakeholder response: %w", err)
	}

	// The booking service reports one entry per engagement; a client with
	// several appointments shows up several times.
	raw := platformstrings.DedupeAndTrim(parsed.RecipientIDs)
	recipients := make([]id.RecipientID, 0, len(raw))
	for _, value := range raw {
		recipientID, err := id.ParseRecipientID(value)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient id %q in stakeholder response: %w", value, err)
		}
		recipients = append(recipients, recipientID)
	}
	return recipients, nil
}
