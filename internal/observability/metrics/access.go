package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/almacen/almacen-ui/internal/observability/errors"
	"github.com/almacen/almacen-ui/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// GuardMetric describes one navigation guard evaluation.
type GuardMetric struct {
	Route   string
	Outcome string
}

// EmitGuardDecision counts guard outcomes per route.
func EmitGuardDecision(sink statsd.Sink, in GuardMetric) {
	if sink == nil {
		return
	}
	sink.Count("guard.decision", 1, map[string]string{
		"route":   in.Route,
		"outcome": in.Outcome,
	})
}

// APIMetric describes one call to the Almacen backend.
type APIMetric struct {
	Method   string
	Status   int
	Duration time.Duration
	Err      error
}

// EmitAPICall records backend call counts and latency.
func EmitAPICall(sink statsd.Sink, in APIMetric) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if in.Err != nil || in.Status >= 400 {
		result = ResultError
	}
	tags := map[string]string{
		"method": in.Method,
		"result": result,
	}
	if in.Status > 0 {
		tags["status"] = strconv.Itoa(in.Status)
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("api.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("api.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
