package mapclient_test

import (
	"testing"
	"time"

	"github.com/nestmap/nestmap/internal/mapclient"
)

func TestIntervalFor(t *testing.T) {
	tests := []struct {
		name string
		env  mapclient.Environment
		want time.Duration
	}{
		{"default", mapclient.Environment{EffectiveConnectionType: "4g", ViewportWidth: 1440}, 200 * time.Millisecond},
		{"unknown environment", mapclient.Environment{}, 200 * time.Millisecond},
		{"narrow viewport", mapclient.Environment{EffectiveConnectionType: "4g", ViewportWidth: 768}, 300 * time.Millisecond},
		{"2g", mapclient.Environment{EffectiveConnectionType: "2g", ViewportWidth: 1440}, 500 * time.Millisecond},
		{"slow-2g", mapclient.Environment{EffectiveConnectionType: "slow-2g", ViewportWidth: 375}, 500 * time.Millisecond},
		{"data saver wins over width", mapclient.Environment{EffectiveConnectionType: "4g", SaveData: true, ViewportWidth: 375}, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapclient.IntervalFor(tt.env); got != tt.want {
				t.Errorf("IntervalFor(%+v) = %v, want %v", tt.env, got, tt.want)
			}
		})
	}
}
