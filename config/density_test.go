package config

import "testing"

func TestProfileTypeString(t *testing.T) {
	cases := []struct {
		t    ProfileType
		want string
	}{
		{Uniform, "uniform"},
		{Step, "step"},
		{Slab, "slab"},
		{ProfileType(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.t.String(); got != c.want {
			t.Errorf("ProfileType(%d).String() = %q, want %q", c.t, got, c.want)
		}
	}
}
