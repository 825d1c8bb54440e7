package config

import "testing"

func validConfig() Config {
	return Config{
		NX: 16, NY: 16,
		Box:      [2]float64{16, 16},
		Dt:       0.05,
		TMax:     10,
		NDump:    100,
		NRegions: 4,
		TileEdge: 4,
		Species: []Species{
			{Name: "electron", QOverM: -1, Q: -1, PPC: [2]int{2, 2}, Dt: 0.05},
		},
	}
}

func TestConfigValidateAcceptsValidConfig(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestConfigValidateRejectsBadInputs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"NX", func(c *Config) { c.NX = 0 }},
		{"NY", func(c *Config) { c.NY = -1 }},
		{"Box", func(c *Config) { c.Box = [2]float64{0, 16} }},
		{"Dt", func(c *Config) { c.Dt = 0 }},
		{"TMax", func(c *Config) { c.TMax = -1 }},
		{"NDump", func(c *Config) { c.NDump = 0 }},
		{"NRegions", func(c *Config) { c.NRegions = 0 }},
		{"GPUFraction", func(c *Config) { c.GPUFraction = 1.5 }},
		{"TileEdge not power of two", func(c *Config) { c.TileEdge = 3 }},
		{"NX not divisible by TileEdge", func(c *Config) { c.NX = 15 }},
		{"NY not divisible by NRegions", func(c *Config) { c.NY = 15 }},
		{"per-region rows not divisible by TileEdge", func(c *Config) { c.NY = 24; c.NRegions = 4; c.TileEdge = 4 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("Validate() = nil for broken %q, want an error", tc.name)
			}
		})
	}
}

func TestConfigValidateRejectsNGPURegionsOutOfRange(t *testing.T) {
	c := validConfig()
	n := c.NRegions + 1
	c.NGPURegions = &n
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want an error for NGPURegions > NRegions")
	}
}

func TestConfigValidateRejectsBadSpecies(t *testing.T) {
	c := validConfig()
	c.Species[0].QOverM = 0
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want an error for QOverM == 0")
	}
}

func TestConfigGPURegionCountExplicit(t *testing.T) {
	c := validConfig()
	n := 3
	c.NGPURegions = &n
	if got := c.GPURegionCount(); got != 3 {
		t.Fatalf("GPURegionCount() = %d, want 3", got)
	}
}

func TestConfigGPURegionCountFromFraction(t *testing.T) {
	c := validConfig()
	c.NRegions = 4
	c.GPUFraction = 0.5
	if got := c.GPURegionCount(); got != 2 {
		t.Fatalf("GPURegionCount() = %d, want 2", got)
	}
}
