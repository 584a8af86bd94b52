package stats

import "testing"

func TestHelp(t *testing.T) {
	if got := Help(MetricEngineLatency); got == MetricEngineLatency {
		t.Errorf("Help(%q) should have a description", MetricEngineLatency)
	}
	if got := Help("unknown_metric"); got != "unknown_metric" {
		t.Errorf("Help(unknown) = %q, want the name", got)
	}
}
