package metrics

import (
	"time"

	obserrors "github.com/botivate/systems-dashboard/internal/observability/errors"
	"github.com/botivate/systems-dashboard/internal/observability/statsd"
)

// Outcome constants for metric tagging.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeMissing     = "missing_credentials"
	OutcomeUnavailable = "unavailable"
	OutcomeBusy        = "busy"
	OutcomeError       = "error"
)

// Metric names.
const (
	LoginAttempt          = "login.attempt"
	CatalogFetch          = "catalog.fetch"
	CatalogStaleDiscarded = "catalog.stale_discarded"
	SessionCorrupt        = "session.corrupt"
	TabsActive            = "tabs.active"
	TabsEvicted           = "tabs.evicted"
)

// EmitLoginAttempt counts one login attempt by outcome.
func EmitLoginAttempt(sink statsd.Sink, outcome string, err error) {
	if sink == nil {
		return
	}
	sink.Count(LoginAttempt, 1, withErrorClass(map[string]string{"outcome": outcome}, err))
}

// CatalogFetchMetric captures one catalog fetch for metric emission.
type CatalogFetchMetric struct {
	Duration time.Duration
	Rows     int
	Err      error
}

// EmitCatalogFetch records the fetch latency tagged by outcome.
func EmitCatalogFetch(sink statsd.Sink, in CatalogFetchMetric) {
	if sink == nil {
		return
	}
	outcome := OutcomeSuccess
	if in.Err != nil {
		outcome = OutcomeError
	}
	tags := withErrorClass(map[string]string{"outcome": outcome}, in.Err)
	sink.Timing(CatalogFetch, in.Duration, tags)
	if in.Err == nil {
		sink.Gauge(CatalogFetch+".rows", float64(in.Rows), nil)
	}
}

// EmitStaleDiscarded counts a fetch result dropped because the tab moved on.
func EmitStaleDiscarded(sink statsd.Sink) {
	if sink != nil {
		sink.Count(CatalogStaleDiscarded, 1, nil)
	}
}

// EmitSessionCorrupt counts a persisted session that could not be decoded.
func EmitSessionCorrupt(sink statsd.Sink) {
	if sink != nil {
		sink.Count(SessionCorrupt, 1, nil)
	}
}

// EmitTabs reports the live tab count and how many were just evicted.
func EmitTabs(sink statsd.Sink, active, evicted int) {
	if sink == nil {
		return
	}
	sink.Gauge(TabsActive, float64(active), nil)
	if evicted > 0 {
		sink.Count(TabsEvicted, int64(evicted), nil)
	}
}

func withErrorClass(tags map[string]string, err error) map[string]string {
	if err == nil {
		return tags
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
	return tags
}
