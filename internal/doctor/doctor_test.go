package doctor

import (
	"testing"

	"github.com/volker-fr/claude-pipe/internal/config"
	"github.com/volker-fr/claude-pipe/internal/tmux"
)

type staticCheck struct {
	name   string
	status Status
}

func (c staticCheck) Name() string { return c.name }

func (c staticCheck) Run(cfg *config.Config, tm *tmux.Tmux) Result {
	return Result{Name: c.name, Status: c.status}
}

func TestRunAggregatesHealth(t *testing.T) {
	cfg := config.Default()
	tm := tmux.New()

	results, healthy := Run(cfg, tm, []Check{
		staticCheck{"a", StatusOK},
		staticCheck{"b", StatusWarning},
	})
	if !healthy {
		t.Error("warnings alone marked the environment unhealthy")
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	_, healthy = Run(cfg, tm, []Check{
		staticCheck{"a", StatusOK},
		staticCheck{"b", StatusError},
		staticCheck{"c", StatusOK},
	})
	if healthy {
		t.Error("an error check did not mark the environment unhealthy")
	}
}

func TestStatusString(t *testing.T) {
	if StatusOK.String() != "ok" || StatusWarning.String() != "warn" || StatusError.String() != "error" {
		t.Errorf("unexpected status strings: %s %s %s", StatusOK, StatusWarning, StatusError)
	}
}
