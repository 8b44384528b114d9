package version

import "testing"

func TestInfo(t *testing.T) {
	if got := Info("").Service; got != "trackergen-api" {
		t.Fatalf("default service = %q", got)
	}
	bi := Info("trackergen-probe")
	if bi.Service != "trackergen-probe" || bi.Version != "dev" || bi.Commit == "" {
		t.Fatalf("info = %+v", bi)
	}
}
