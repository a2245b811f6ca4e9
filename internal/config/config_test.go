package config_test

import (
	"testing"

	"github.com/dsvi/school-portal-backend/internal/config"
)

func TestParseEnvironment(t *testing.T) {
	if got := config.ParseEnvironment("production"); got != config.EnvProduction {
		t.Errorf("expected production, got %s", got)
	}
	if got := config.ParseEnvironment("development"); got != config.EnvDevelopment {
		t.Errorf("expected development, got %s", got)
	}
	// Anything that is not the exact production value runs as development.
	for _, s := range []string{"", "prod", "Production", "staging"} {
		if got := config.ParseEnvironment(s); got != config.EnvDevelopment {
			t.Errorf("ParseEnvironment(%q) = %s, expected development", s, got)
		}
	}
}
