package sanitize

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// StripANSI
// ---------------------------------------------------------------------------

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"csi color", "\x1b[31mred\x1b[0m", "red"},
		{"csi cursor", "line\x1b[2Kmore", "linemore"},
		{"csi private", "\x1b[?25lhidden\x1b[?25h", "hidden"},
		{"osc bel", "\x1b]0;title\x07text", "text"},
		{"osc st", "\x1b]8;;http://x\x1b\\link", "link"},
		{"multiline", "\x1b[1ma\x1b[0m\n\x1b[32mb\x1b[0m", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.in); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TruncateAfterEcho
// ---------------------------------------------------------------------------

func TestTruncateAfterEcho(t *testing.T) {
	tests := []struct {
		name string
		in   string
		sent string
		want string
	}{
		{
			name: "echo found",
			in:   "chrome\n> what is 2+2\nFour\n",
			sent: "what is 2+2",
			want: "Four\n",
		},
		{
			name: "echo absent returns input",
			in:   "Four\n",
			sent: "what is 2+2",
			want: "Four\n",
		},
		{
			name: "empty sent returns input",
			in:   "Four\n",
			sent: "",
			want: "Four\n",
		},
		{
			name: "long prompt matches on first 60 chars",
			in:   "> " + strings.Repeat("a", 60) + " [wrapped]\nanswer",
			sent: strings.Repeat("a", 200),
			want: "answer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateAfterEcho(tt.in, tt.sent); got != tt.want {
				t.Errorf("TruncateAfterEcho() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TruncateAtMarker
// ---------------------------------------------------------------------------

func TestTruncateAtMarker(t *testing.T) {
	const marker = "===PIPE_END_7f3a0000==="
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"standalone marker", "answer\n" + marker + "\nafter", "answer"},
		{"indented marker", "answer\n  " + marker + "  \nafter", "answer"},
		{"inline marker excised", "answer " + marker + "\nafter", "answer\nafter"},
		{"doubled marker line ends answer", "answer\n" + marker + marker + "\nafter", "answer\n"},
		{"no marker", "answer", "answer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateAtMarker(tt.in, marker); got != tt.want {
				t.Errorf("TruncateAtMarker() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Clean Answer never contains the marker, wherever it appeared.
func TestMarkerNeverInCleanAnswer(t *testing.T) {
	const marker = "===PIPE_END_deadbeef==="
	raws := []string{
		"Hello there!\n" + marker,
		"Hello there!\n" + marker + "\n",
		"Hello " + marker + " there!",
	}
	for _, raw := range raws {
		got, err := Clean(raw, "", marker)
		if err != nil {
			t.Fatalf("Clean(%q) error: %v", raw, err)
		}
		if strings.Contains(got, marker) {
			t.Errorf("Clean(%q) = %q still contains marker", raw, got)
		}
	}
}

// ---------------------------------------------------------------------------
// StripBullets
// ---------------------------------------------------------------------------

func TestStripBullets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"response bullet", "● Four\n", "Four\n"},
		{"tool bullet", "⎿ Read 3 files\n", "Read 3 files\n"},
		{"hanging indent undone", "● First\n  second line", "First\nsecond line"},
		{"code indent preserved", "● Code:\n    x := 1", "Code:\n    x := 1"},
		{"plain bullet kept", "• a list item", "• a list item"},
		{"no decoration", "plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripBullets(tt.in); got != tt.want {
				t.Errorf("StripBullets(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TrimFooter
// ---------------------------------------------------------------------------

func TestTrimFooter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"prompt char", "answer\n❯", "answer"},
		{"prompt with space", "answer\n❯ \n", "answer"},
		{"shortcut hint", "answer\n? for shortcuts", "answer"},
		{"rule line", "answer\n────", "answer"},
		{"border corners", "answer\n╭──╮", "answer"},
		{"stacked noise", "answer\n\n──\n❯ \nshortcuts", "answer"},
		{"substantive tail kept", "answer\ndone", "answer\ndone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimFooter(tt.in); got != tt.want {
				t.Errorf("TrimFooter(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// CollapseBlankRuns
// ---------------------------------------------------------------------------

func TestCollapseBlankRuns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no blanks", "a\nb", "a\nb"},
		{"single blank kept", "a\n\nb", "a\n\nb"},
		{"run collapsed", "a\n\n\n\nb", "a\n\nb"},
		{"trailing spaces trimmed", "a  \nb\t", "a\nb"},
		{"whitespace-only lines are blank", "a\n   \n \nb", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollapseBlankRuns(tt.in); got != tt.want {
				t.Errorf("CollapseBlankRuns(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Clean — full pipeline
// ---------------------------------------------------------------------------

func TestCleanScenarioMarkedResponse(t *testing.T) {
	raw := "user: hi\nHello there!\n<<<DONE-7f3a>>>"
	got, err := Clean(raw, "hi", "<<<DONE-7f3a>>>")
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if got != "Hello there!" {
		t.Errorf("Clean() = %q, want %q", got, "Hello there!")
	}
}

func TestCleanScenarioIdleResponse(t *testing.T) {
	// The plain bullet is substantive text, not chrome: only the agent's
	// response glyphs (●, ⎿, ⏿, ⎇) are in the decorative set.
	raw := "• Thinking...\n\nResult: 42\n"
	got, err := Clean(raw, "", "")
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	want := "• Thinking...\n\nResult: 42"
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanFullChrome(t *testing.T) {
	raw := strings.Join([]string{
		"╭──────╮",
		"> what is 6 times 7 (When done, print ===PIPE_END_0a1b2c3d=== on its own line)",
		"",
		"✶ Pondering… (2s · ↓ 80 tokens · esc to interrupt)",
		"● The answer is 42.",
		"  It is the product of 6 and 7.",
		"===PIPE_END_0a1b2c3d===",
		"",
		"────────",
		"❯ ",
		"? for shortcuts",
	}, "\n")
	got, err := Clean(raw, "what is 6 times 7", "===PIPE_END_0a1b2c3d===")
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	want := "The answer is 42.\nIt is the product of 6 and 7."
	if got != want {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

// Sanitizing an already-clean string returns it unchanged.
func TestCleanIdempotent(t *testing.T) {
	cleans := []string{
		"Hello there!",
		"The answer is 42.\nIt is the product of 6 and 7.",
		"para one\n\npara two",
		"code:\n    x := 1\n    y := 2",
	}
	for _, s := range cleans {
		got, err := Clean(s, "", "")
		if err != nil {
			t.Fatalf("Clean(%q) error: %v", s, err)
		}
		if got != s {
			t.Errorf("Clean(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestCleanEmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"only chrome", "───\n❯ \n? for shortcuts"},
		{"only marker", "===PIPE_END_00000000===\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Clean(tt.raw, "", "===PIPE_END_00000000===")
			if err != ErrEmptyResponse {
				t.Errorf("Clean(%q) error = %v, want ErrEmptyResponse", tt.raw, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// NormalizeForIdle
// ---------------------------------------------------------------------------

func TestNormalizeForIdleStableUnderAnimation(t *testing.T) {
	frame := func(spinner, secs string) string {
		return strings.Join([]string{
			"● Working on it.",
			spinner + " Pondering… (" + secs + "s · ↓ 214 tokens · esc to interrupt)",
			"⏵⏵ bypass permissions on · esc to interrupt",
		}, "\n")
	}
	a := NormalizeForIdle(frame("✶", "3"))
	b := NormalizeForIdle(frame("✻", "4"))
	if a != b {
		t.Errorf("normalized frames differ:\n%q\n%q", a, b)
	}
	if !strings.Contains(a, "Working on it.") {
		t.Errorf("normalization dropped substantive text: %q", a)
	}
}

func TestNormalizeForIdleSeesNewContent(t *testing.T) {
	a := NormalizeForIdle("● thinking\n✶ Pondering…")
	b := NormalizeForIdle("● thinking\nNew paragraph.\n✶ Pondering…")
	if a == b {
		t.Error("new substantive content did not change normalized snapshot")
	}
}
