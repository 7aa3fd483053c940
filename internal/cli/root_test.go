package cli

import "testing"

func TestNewRootCmd(t *testing.T) {
	opts := newOptions()
	cmd := newRootCmd(opts)
	if cmd.Use != "chartsync" {
		t.Fatalf("unexpected use %s", cmd.Use)
	}
	for _, name := range []string{"refresh", "serve"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Fatalf("expected %s subcommand, got %v", name, err)
		}
	}
	if f := cmd.PersistentFlags().Lookup("chart-limit"); f == nil || f.DefValue != "10" {
		t.Fatalf("expected chart-limit default of 10")
	}
}

func TestParseReferenceDate(t *testing.T) {
	if ts, err := parseReferenceDate(""); err != nil || !ts.IsZero() {
		t.Fatalf("empty reference should be zero, got %v %v", ts, err)
	}
	ts, err := parseReferenceDate("2024-06-01")
	if err != nil || ts.Year() != 2024 || ts.Month() != 6 {
		t.Fatalf("unexpected reference %v %v", ts, err)
	}
	if _, err := parseReferenceDate("June 1st"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CHARTSYNC_TEST_INT", "25")
	if got := getEnvInt("CHARTSYNC_TEST_INT", 10); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	t.Setenv("CHARTSYNC_TEST_INT", "many")
	if got := getEnvInt("CHARTSYNC_TEST_INT", 10); got != 10 {
		t.Fatalf("expected fallback, got %d", got)
	}
}
