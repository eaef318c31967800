package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.CallStarted()
	m.CallStarted()
	m.CallEnded(3 * time.Second)
	m.MessageAppended(domain.SpeakerLocal)
	m.MessageAppended(domain.SpeakerRemote)
	m.MessageAppended(domain.SpeakerRemote)
	m.TimersCancelled(2)
	m.TimersCancelled(0)

	if got := testutil.ToFloat64(m.ActiveCalls); got != 1 {
		t.Fatalf("active calls=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CallsEnded); got != 1 {
		t.Fatalf("ended calls=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Messages.WithLabelValues("remote")); got != 2 {
		t.Fatalf("remote messages=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TimersCancelledTotal); got != 2 {
		t.Fatalf("cancelled timers=%v, want 2", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.CallStarted()

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", res.Code)
	}
	if !strings.Contains(res.Body.String(), "voicetext_calls_started_total 1") {
		t.Fatalf("exposition missing counter:\n%s", res.Body.String())
	}
}
