package layout

import (
	"errors"
	"reflect"
	"testing"
)

// Real layout strings reported by tmux.
const (
	layoutSingle = "64ef,334x85,0,0,10"
	layoutNested = "41e9,279x71,0,0[279x40,0,0,71,279x30,0,41{147x30,0,41,72,131x30,148,41,73}]"
)

func TestParse_SinglePane(t *testing.T) {
	l, err := Parse(layoutSingle)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if l.Checksum != "64ef" {
		t.Errorf("Checksum: got %q, want %q", l.Checksum, "64ef")
	}
	want := Node{Width: 334, Height: 85, X: 0, Y: 0, PaneID: 10}
	if !reflect.DeepEqual(l.Root, want) {
		t.Errorf("Root: got %+v, want %+v", l.Root, want)
	}
}

func TestParse_NestedSplits(t *testing.T) {
	l, err := Parse(layoutNested)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	root := l.Root
	if root.IsPane() {
		t.Fatal("root should be a split")
	}
	if root.Orientation != Vertical {
		t.Errorf("root orientation: got %v, want Vertical", root.Orientation)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root children: got %d, want 2", len(root.Children))
	}

	top := root.Children[0]
	if !top.IsPane() || top.PaneID != 71 {
		t.Errorf("first child: got %+v, want pane 71", top)
	}

	bottom := root.Children[1]
	if bottom.Orientation != Horizontal {
		t.Errorf("bottom orientation: got %v, want Horizontal", bottom.Orientation)
	}
	if len(bottom.Children) != 2 {
		t.Fatalf("bottom children: got %d, want 2", len(bottom.Children))
	}
	if got := bottom.Children[1]; got.PaneID != 73 || got.Width != 131 || got.X != 148 {
		t.Errorf("last pane: got %+v", got)
	}
}

func TestParse_PaneIDOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{"single pane", layoutSingle, []int{10}},
		{"nested splits", layoutNested, []int{71, 72, 73}},
		{
			"deep nesting",
			"e2e2,334x85,0,0{175x85,0,0,20,158x85,176,0[158x42,176,0,21,158x42,176,43,27]}",
			[]int{20, 21, 27},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if got := l.PaneIDs(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PaneIDs(): got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_NoDuplicatePaneIDs(t *testing.T) {
	inputs := []string{
		layoutSingle,
		layoutNested,
		"4438,334x85,0,0[334x41,0,0{167x41,0,0,4,166x41,168,0,5},334x43,0,42{167x43,0,42,6,166x43,168,42,7}]",
	}
	for _, input := range inputs {
		l, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", input, err)
		}
		seen := make(map[int]bool)
		for _, id := range l.PaneIDs() {
			if seen[id] {
				t.Errorf("duplicate pane id %d in %q", id, input)
			}
			seen[id] = true
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		layoutSingle,
		layoutNested,
		"035d,334x85,0,0{167x85,0,0,1,166x85,168,0[166x48,168,0,2,166x36,168,49,3]}",
		"4438,334x85,0,0[334x41,0,0{167x41,0,0,4,166x41,168,0,5},334x43,0,42{167x43,0,42,6,166x43,168,42,7}]",
	}
	for _, input := range inputs {
		l, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", input, err)
		}
		encoded := l.String()
		if encoded != input {
			t.Errorf("String(): got %q, want %q", encoded, input)
		}
		again, err := Parse(encoded)
		if err != nil {
			t.Fatalf("re-Parse(%q) error: %v", encoded, err)
		}
		if !reflect.DeepEqual(l, again) {
			t.Errorf("round-trip tree mismatch for %q", input)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int
	}{
		// "ab" after "x" is consumed as the start of a height; but
		// letters are not digits, so the height parse fails right there.
		{"non-numeric height", "41e9,279xab,0,0,71", 9},
		{"non-numeric x offset", "41e9,279x71,zz,0,71", 12},
		{"missing geometry separator", "41e9,27971,0,0,71", 10},
		{"truncated split", "41e9,279x71,0,0[279x40,0,0,71", 29},
		{"trailing garbage", "41e9,279x71,0,0,71!!", 18},
		{"empty input", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error type: got %T, want *ParseError", err)
			}
			if perr.Offset != tt.wantOffset {
				t.Errorf("offset: got %d, want %d (err: %v)", perr.Offset, tt.wantOffset, perr)
			}
		})
	}
}

func TestParse_RejectsSingleChildSplit(t *testing.T) {
	// Structurally well-formed but semantically invalid: a split must
	// hold at least two children.
	_, err := Parse("0000,100x50,0,0{100x50,0,0,1}")
	if err == nil {
		t.Fatal("Parse() succeeded, want error")
	}
}

func TestParse_RejectsInconsistentExtents(t *testing.T) {
	// 100 wide parent split into 40 + 40 + separator = 81 != 100.
	_, err := Parse("0000,100x50,0,0{40x50,0,0,1,40x50,41,0,2}")
	if err == nil {
		t.Fatal("Parse() succeeded, want error")
	}
}

func TestParse_DuplicatePaneID(t *testing.T) {
	_, err := Parse("0000,100x50,0,0{49x50,0,0,7,50x50,50,0,7}")
	if err == nil {
		t.Fatal("Parse() succeeded, want error")
	}
}

func TestParse_ChecksumNotValidated(t *testing.T) {
	// The checksum token is advisory: a wrong value must not fail.
	l, err := Parse("dead,334x85,0,0,10")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if l.Checksum != "dead" {
		t.Errorf("Checksum: got %q", l.Checksum)
	}
}

func TestChecksum(t *testing.T) {
	// The checksum of a tmux-reported layout body matches the token
	// tmux put in front of it.
	body := "334x85,0,0,10"
	if got := Checksum(body); got != "64ef" {
		t.Errorf("Checksum(%q): got %q, want %q", body, got, "64ef")
	}
}
