package picerr

import "testing"

func TestConfigErrorMessage(t *testing.T) {
	e := &ConfigError{Field: "NX", Reason: "must be positive"}
	want := `pic2d: invalid configuration for NX: must be positive`
	if got := e.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestAllocErrorMessage(t *testing.T) {
	e := &AllocError{What: "particle storage", Requested: 1024, Available: 512}
	want := `pic2d: could not allocate particle storage: requested 1024, available 512`
	if got := e.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestNumericOverrunErrorMessage(t *testing.T) {
	e := &NumericOverrunError{Species: "electron", Particle: 3, DIx: 2, DIy: 0}
	want := `pic2d: CFL violation in species "electron", particle 3 moved (2,0) cells in one step`
	if got := e.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestCapacityExceededErrorMessage(t *testing.T) {
	e := &CapacityExceededError{Buffer: "electron.in.up", Size: 65, Cap: 64}
	want := `pic2d: buffer "electron.in.up" overflowed: size 65 exceeds capacity 64`
	if got := e.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestConfigErrorsAsConfigErrorEmptyIsNil(t *testing.T) {
	var es ConfigErrors
	if err := es.AsConfigError(); err != nil {
		t.Fatalf("AsConfigError() = %v, want nil for an empty slice", err)
	}
}

func TestConfigErrorsAsConfigErrorNonEmpty(t *testing.T) {
	es := ConfigErrors{{Field: "NX", Reason: "must be positive"}}
	err := es.AsConfigError()
	if err == nil {
		t.Fatal("AsConfigError() = nil, want a non-nil error")
	}
	if _, ok := err.(ConfigErrors); !ok {
		t.Fatalf("AsConfigError() type = %T, want ConfigErrors", err)
	}
}

func TestConfigErrorsErrorListsEveryViolation(t *testing.T) {
	es := ConfigErrors{
		{Field: "NX", Reason: "must be positive"},
		{Field: "NY", Reason: "must be positive"},
	}
	got := es.Error()
	want := "pic2d: 2 configuration error(s):\n  - pic2d: invalid configuration for NX: must be positive\n  - pic2d: invalid configuration for NY: must be positive"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
