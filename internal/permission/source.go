package permission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ridloal/product-dashboard/internal/platform/logger"
)

// Source supplies the capability set of the current session.
type Source interface {
	FetchPermissions(ctx context.Context) ([]Capability, error)
}

// StaticSource always succeeds with a configured list.
type StaticSource struct {
	capabilities []Capability
}

func NewStaticSource(caps ...Capability) *StaticSource {
	out := make([]Capability, len(caps))
	copy(out, caps)
	return &StaticSource{capabilities: out}
}

func (s *StaticSource) FetchPermissions(ctx context.Context) ([]Capability, error) {
	out := make([]Capability, len(s.capabilities))
	copy(out, s.capabilities)
	return out, nil
}

type permissionsResponse struct {
	Permissions []string `json:"permissions"`
}

// HTTPSource asks a remote endpoint for `{"permissions": ["CREATE", ...]}`.
type HTTPSource struct {
	URL        string
	HTTPClient *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *HTTPSource) FetchPermissions(ctx context.Context) ([]Capability, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		logger.Error("PermissionSource.FetchPermissions: NewRequest failed", err, nil)
		return nil, fmt.Errorf("failed to create permissions request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		logger.Error("PermissionSource.FetchPermissions: HTTPClient.Do failed", err, nil)
		return nil, fmt.Errorf("failed to call permissions endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error(fmt.Sprintf("PermissionSource.FetchPermissions: endpoint returned status %d", resp.StatusCode), nil, nil)
		return nil, fmt.Errorf("permissions endpoint returned status: %d", resp.StatusCode)
	}

	var body permissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Error("PermissionSource.FetchPermissions: JSON decode failed", err, nil)
		return nil, fmt.Errorf("failed to decode permissions response: %w", err)
	}

	caps, err := Normalize(body.Permissions)
	if err != nil {
		logger.Error("PermissionSource.FetchPermissions: invalid capability", err, nil)
		return nil, err
	}
	return caps, nil
}
