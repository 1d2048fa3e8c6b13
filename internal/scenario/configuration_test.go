package scenario

import "testing"

func TestConfigurationTotals(t *testing.T) {
	cfg := Configuration{
		ID:              "cfg-1",
		PlatformCounts:  map[string]int{"destroyer": 2, "frigate": 4, "uav": 6},
		TaskAssignments: map[string]int{"air_defense": 5, "strike": 3, "recon": 4},
	}
	if n := cfg.TotalPlatforms(); n != 12 {
		t.Errorf("TotalPlatforms = %d, want 12", n)
	}
	if n := cfg.TotalAssigned(); n != 12 {
		t.Errorf("TotalAssigned = %d, want 12", n)
	}
}

func TestConfigurationTotalsEmpty(t *testing.T) {
	var cfg Configuration
	if n := cfg.TotalPlatforms(); n != 0 {
		t.Errorf("TotalPlatforms = %d, want 0", n)
	}
	if n := cfg.TotalAssigned(); n != 0 {
		t.Errorf("TotalAssigned = %d, want 0", n)
	}
}

func TestConfigurationValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Configuration
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Configuration{
				ID:              "cfg-1",
				PlatformCounts:  map[string]int{"frigate": 3},
				TaskAssignments: map[string]int{"recon": 2},
			},
		},
		{
			name:    "empty id",
			cfg:     Configuration{PlatformCounts: map[string]int{"frigate": 3}},
			wantErr: true,
		},
		{
			name: "negative platform count",
			cfg: Configuration{
				ID:             "cfg-1",
				PlatformCounts: map[string]int{"frigate": -1},
			},
			wantErr: true,
		},
		{
			name: "negative task assignment",
			cfg: Configuration{
				ID:              "cfg-1",
				TaskAssignments: map[string]int{"strike": -2},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}
