package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"praxis/internal/profile/models"
	"praxis/internal/profile/ports"
)

// httpAdapter pushes section changes to a downstream service over REST.
// Changes are PUT to a resource addressed by subject and section, so
// re-applying the same change converges on the same downstream state.
type httpAdapter struct {
	system  models.System
	baseURL string
	path    func(change models.SectionChange) string
	client  *http.Client
}

// NewSearchAdapter targets the search index service.
func NewSearchAdapter(baseURL string, timeout time.Duration) ports.Synchronizer {
	return &httpAdapter{
		system:  models.SystemSearch,
		baseURL: strings.TrimRight(baseURL, "/"),
		path: func(c models.SectionChange) string {
			return fmt.Sprintf("/index/subjects/%s/sections/%s", c.SubjectID, c.Section)
		},
		client: &http.Client{Timeout: timeout},
	}
}

// NewBookingAdapter targets the booking/scheduling service.
func NewBookingAdapter(baseURL string, timeout time.Duration) ports.Synchronizer {
	return &httpAdapter{
		system:  models.SystemBooking,
		baseURL: strings.TrimRight(baseURL, "/"),
		path: func(c models.SectionChange) string {
			return fmt.Sprintf("/internal/profiles/%s/sections/%s", c.SubjectID, c.Section)
		},
		client: &http.Client{Timeout: timeout},
	}
}

func (a *httpAdapter) System() models.System {
	return a.system
}

func (a *httpAdapter) Apply(ctx context.Context, change models.SectionChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.baseURL+a.path(change), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", a.system, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s rejected change with status %d: %s", a.system, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
