// Where: cli/internal/audit/audit.go
// What: Deployment audit events posted to a webhook.
// Why: Upgrade runs leave a trail in the audit service without ever
// failing the deploy itself.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clux/shipcat/internal/envutil"
	"github.com/clux/shipcat/internal/manifest"
)

// UpgradeState is the wire status of a deployment event.
type UpgradeState string

const (
	StatePending   UpgradeState = "PENDING"
	StateStarted   UpgradeState = "STARTED"
	StateCompleted UpgradeState = "COMPLETED"
	StateFailed    UpgradeState = "FAILED"
	StateCancelled UpgradeState = "CANCELLED"
)

const requestTimeout = 5 * time.Second

// Webhook is the audit endpoint configuration, read from host env once
// at startup.
type Webhook struct {
	URL   string
	Token string

	// ContextID correlates all events of one pipeline run.
	ContextID   string
	ContextLink string
	// Revision of the manifests repository being applied.
	Revision string
}

// FromEnv reads SHIPCAT_AUDIT_* host env vars. Returns ok=false when
// url or token is missing, which disables auditing.
func FromEnv() (Webhook, bool) {
	w := Webhook{
		URL:         envutil.GetHostEnv("AUDIT_WEBHOOK_URL"),
		Token:       envutil.GetHostEnv("AUDIT_WEBHOOK_TOKEN"),
		ContextID:   envutil.GetHostEnv("AUDIT_CONTEXT_ID"),
		ContextLink: envutil.GetHostEnv("AUDIT_CONTEXT_LINK"),
		Revision:    envutil.GetHostEnv("AUDIT_REVISION"),
	}
	return w, w.URL != "" && w.Token != ""
}

// DeploymentPayload identifies one service upgrade in one region.
type DeploymentPayload struct {
	ID                string `json:"id"`
	Region            string `json:"region"`
	ManifestsRevision string `json:"manifestsRevision"`
	Service           string `json:"service"`
	Version           string `json:"version"`
}

// Event is the wire envelope for an audit message.
type Event struct {
	Type        string            `json:"type"`
	Timestamp   string            `json:"timestamp"`
	Status      UpgradeState      `json:"status"`
	ContextID   string            `json:"context_id,omitempty"`
	ContextLink string            `json:"context_link,omitempty"`
	Payload     DeploymentPayload `json:"payload"`
}

// NewDeploymentEvent builds the event for a manifest reaching a state.
func (w Webhook) NewDeploymentEvent(m *manifest.Manifest, status UpgradeState) Event {
	return Event{
		Type:        "deployment",
		Timestamp:   time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Status:      status,
		ContextID:   w.ContextID,
		ContextLink: w.ContextLink,
		Payload: DeploymentPayload{
			ID:                fmt.Sprintf("%s-%s-%s", m.Name, m.Version, w.Revision),
			Region:            m.Region,
			ManifestsRevision: w.Revision,
			Service:           m.Name,
			Version:           m.Version,
		},
	}
}

// Send posts one event with the bearer token.
func (w Webhook) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("audit webhook returned %s: %s", resp.Status, b)
	}
	return nil
}

// Notify posts a deployment event, downgrading failures to a warning.
// Deploys never abort because the audit trail is unavailable.
func Notify(ctx context.Context, m *manifest.Manifest, status UpgradeState, warn func(format string, args ...any)) {
	w, ok := FromEnv()
	if !ok {
		warn("audit webhook not configured, skipping %s event for %s", status, m.Name)
		return
	}
	if err := w.Send(ctx, w.NewDeploymentEvent(m, status)); err != nil {
		warn("audit event for %s failed: %v", m.Name, err)
	}
}
