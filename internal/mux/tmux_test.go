package mux

import "testing"

func TestParsePaneID(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"%0", 0, false},
		{"%37", 37, false},
		{"37", 0, true},
		{"%x", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parsePaneID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePaneID(%q): err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parsePaneID(%q): got %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseWindowPane(t *testing.T) {
	window, pane, err := parseWindowPane("3\t%12\n")
	if err != nil {
		t.Fatalf("parseWindowPane() error: %v", err)
	}
	if window != 3 || pane != 12 {
		t.Errorf("got (%d, %d), want (3, 12)", window, pane)
	}

	if _, _, err := parseWindowPane("garbage"); err == nil {
		t.Error("parseWindowPane(garbage) succeeded, want error")
	}
}

func TestExactTarget(t *testing.T) {
	if got := exact("work"); got != "=work" {
		t.Errorf("exact: got %q", got)
	}
	if got := paneTarget(5); got != "%5" {
		t.Errorf("paneTarget: got %q", got)
	}
}

func TestWindowTarget(t *testing.T) {
	// The session part must be exact-matched: a bare "work:1" would
	// also match a session named "work2".
	if got := windowTarget("work", 1); got != "=work:1" {
		t.Errorf("windowTarget: got %q, want %q", got, "=work:1")
	}
}
