package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/clux/shipcat/internal/manifest"
)

func TestFromEnvDisabledWithoutToken(t *testing.T) {
	t.Setenv("SHIPCAT_AUDIT_WEBHOOK_URL", "https://audit.example.com")
	t.Setenv("SHIPCAT_AUDIT_WEBHOOK_TOKEN", "")
	if _, ok := FromEnv(); ok {
		t.Fatalf("expected auditing to be disabled without a token")
	}
}

func TestSendDeploymentEvent(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sekrit" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	t.Setenv("SHIPCAT_AUDIT_WEBHOOK_URL", srv.URL)
	t.Setenv("SHIPCAT_AUDIT_WEBHOOK_TOKEN", "sekrit")
	t.Setenv("SHIPCAT_AUDIT_CONTEXT_ID", "ctx-1")
	t.Setenv("SHIPCAT_AUDIT_REVISION", "abc1234")

	w, ok := FromEnv()
	if !ok {
		t.Fatalf("webhook should be enabled")
	}
	m := &manifest.Manifest{Name: "fake-ask", Version: "1.6.0", Region: "dev-uk"}
	ev := w.NewDeploymentEvent(m, StateCompleted)
	if err := w.Send(context.Background(), ev); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got.Type != "deployment" || got.Status != StateCompleted {
		t.Errorf("envelope = %+v", got)
	}
	if got.Payload.ID != "fake-ask-1.6.0-abc1234" {
		t.Errorf("payload id = %q", got.Payload.ID)
	}
	if got.ContextID != "ctx-1" {
		t.Errorf("context id = %q", got.ContextID)
	}
	tsRe := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)
	if !tsRe.MatchString(got.Timestamp) {
		t.Errorf("timestamp %q is not millisecond RFC3339", got.Timestamp)
	}
}

func TestSendRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	w := Webhook{URL: srv.URL, Token: "bad"}
	m := &manifest.Manifest{Name: "fake-ask", Version: "1.6.0", Region: "dev-uk"}
	if err := w.Send(context.Background(), w.NewDeploymentEvent(m, StateFailed)); err == nil {
		t.Fatalf("expected 403 to error")
	}
}

func TestNotifyNeverFails(t *testing.T) {
	t.Setenv("SHIPCAT_AUDIT_WEBHOOK_URL", "http://127.0.0.1:1")
	t.Setenv("SHIPCAT_AUDIT_WEBHOOK_TOKEN", "sekrit")
	var warned bool
	m := &manifest.Manifest{Name: "fake-ask", Version: "1.6.0", Region: "dev-uk"}
	Notify(context.Background(), m, StateStarted, func(format string, args ...any) {
		warned = true
	})
	if !warned {
		t.Fatalf("unreachable webhook should warn")
	}
}
