package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("FLUXO_INSTANCE_ID", "caja-2")
	if got := GetID(); got != "caja-2" {
		t.Fatalf("expected caja-2 got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("FLUXO_INSTANCE_ID", "")
	t.Setenv("HOSTNAME", "")
	if GetID() == "" {
		t.Fatal("expected a non-empty instance id")
	}

	t.Setenv("HOSTNAME", "pos-host")
	if got := GetID(); got != "pos-host" {
		t.Fatalf("expected pos-host got %q", got)
	}
	if GetID() == "" {
		t.Fatal("expected a non-empty instance id")
	}
}
