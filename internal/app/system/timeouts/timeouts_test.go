package timeouts_test

import (
	"testing"
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/timeouts"
)

func TestConfigure_OverridesOnlyPositiveValues(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{
		Short: 2 * time.Second,
		Long:  time.Minute,
	})

	if got := timeouts.Short(); got != 2*time.Second {
		t.Errorf("Short: got %v, want %v", got, 2*time.Second)
	}
	if got := timeouts.Long(); got != time.Minute {
		t.Errorf("Long: got %v, want %v", got, time.Minute)
	}
	// Zero-valued entries keep the current setting.
	if got := timeouts.Ping(); got != timeouts.DefaultPing {
		t.Errorf("Ping: got %v, want default %v", got, timeouts.DefaultPing)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium: got %v, want default %v", got, timeouts.DefaultMedium)
	}
}

func TestReset_RestoresDefaults(t *testing.T) {
	timeouts.Configure(timeouts.Config{
		Ping:   time.Second,
		Short:  time.Second,
		Medium: time.Second,
		Long:   time.Second,
	})
	timeouts.Reset()

	if got := timeouts.Ping(); got != timeouts.DefaultPing {
		t.Errorf("Ping: got %v, want %v", got, timeouts.DefaultPing)
	}
	if got := timeouts.Short(); got != timeouts.DefaultShort {
		t.Errorf("Short: got %v, want %v", got, timeouts.DefaultShort)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium: got %v, want %v", got, timeouts.DefaultMedium)
	}
	if got := timeouts.Long(); got != timeouts.DefaultLong {
		t.Errorf("Long: got %v, want %v", got, timeouts.DefaultLong)
	}
}
