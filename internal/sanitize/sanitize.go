// Package sanitize extracts a clean answer from raw captured pane text.
//
// Captured panes are contaminated with UI chrome: ANSI escapes, the
// echoed prompt, response bullets, spinner frames, borders, and the
// injected end marker. Cleaning is an ordered pipeline of named
// transforms so new UI quirks can be handled by adding a transform
// without touching the completion detector.
package sanitize

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyResponse indicates sanitization produced nothing — either the
// agent emitted no substantive text or everything was classified as
// chrome. Callers surface it as a failure, never as an empty success.
var ErrEmptyResponse = errors.New("empty response after sanitization")

// echoNeedleLen is how many leading characters of the submitted prompt
// are used to locate its echo in the pane. The agent UI wraps long
// prompts, so only a prefix is reliably on one line.
const echoNeedleLen = 60

// PromptChar is the agent's input prompt character (❯, U+276F).
const PromptChar = "❯"

// responseBullets are the glyphs the agent UI prefixes to response and
// tool-output lines. These mark where substantive output begins and are
// stripped from the final answer. Deliberately excludes the plain
// bullet "•", which the agent uses inside substantive answer text.
var responseBullets = []string{"●", "⏿", "⎇"} // ● ⏿ ⎇

// bulletPrefixRe strips a leading response glyph and one optional
// following space, preserving indentation.
var bulletPrefixRe = regexp.MustCompile(`^(\s*)[\x{25cf}\x{23bf}\x{23ff}\x{2387}]\s?`)

// ansiRe matches CSI sequences and OSC sequences (both ST and BEL
// terminated), plus stray cursor-control escapes.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\][^\x1b\x07]*(?:\x1b\\|\x07)|\x1b[()][A-B0-9]|\x1b[=>]`)

// spinnerFrames are the animation glyphs the agent UI cycles through
// while working. Lines led by one of these carry no substantive text.
var spinnerFrames = []string{"✢", "✳", "✴", "✶", "✻", "✽", "·", "⚙"}

// footerNoise are exact trailing lines that belong to the input box,
// not the answer.
var footerNoise = map[string]bool{
	"":                   true,
	PromptChar:           true,
	PromptChar + " ":     true,
	"? for":              true,
	"shortcuts":          true,
	"? for shortcuts":    true,
	"! for bash mode":    true,
	"/ for commands":     true,
	"@ for file paths":   true,
	"# to memorize":      true,
	"esc to interrupt":   true,
	"ctrl+c to exit":     true,
	"bypass permissions": true,
}

// StripANSI removes ANSI escape sequences and cursor-control bytes.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// TruncateAfterEcho drops everything up to and including the line where
// the submitted prompt is echoed back. If the echo is not found, the
// input is returned unchanged (the caller captured from just after
// submission).
func TruncateAfterEcho(s, sent string) string {
	if sent == "" {
		return s
	}
	needle := sent
	if len(needle) > echoNeedleLen {
		needle = needle[:echoNeedleLen]
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.Contains(line, needle) {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return s
}

// TruncateAtMarker cuts the text at the end marker. A marker on its own
// line ends the answer before that line; a marker embedded in a line is
// excised, and if nothing else was on the line the answer ends there.
func TruncateAtMarker(s, marker string) string {
	if marker == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == marker {
			break
		}
		if strings.Contains(stripped, marker) {
			line = strings.TrimRight(strings.ReplaceAll(line, marker, ""), " \t")
			kept = append(kept, line)
			if strings.TrimSpace(line) == "" {
				break
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// SkipPreamble drops tool-status lines before the response proper
// begins. A response begins at the first line carrying a response
// bullet, or at the first non-empty line that does not look like a
// status tail (status lines end with a ")" counter).
func SkipPreamble(s string) string {
	lines := strings.Split(s, "\n")
	started := false
	var kept []string
	for _, line := range lines {
		if !started {
			stripped := strings.TrimSpace(line)
			if hasResponseBullet(stripped) || (stripped != "" && !strings.HasSuffix(stripped, ")")) {
				started = true
			} else {
				continue
			}
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func hasResponseBullet(s string) bool {
	for _, b := range responseBullets {
		if strings.HasPrefix(s, b) {
			return true
		}
	}
	return false
}

// StripBullets removes response-glyph decoration from line starts and
// undoes the two-space hanging indent the UI adds to continuation
// lines. Four-space indents are preserved: those are code blocks.
func StripBullets(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = bulletPrefixRe.ReplaceAllString(line, "$1")
		if len(out) > 0 && strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "    ") {
			line = line[2:]
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// TrimFooter removes trailing input-box chrome: the prompt character,
// shortcut hints, and border/rule lines made only of box-drawing
// characters.
func TrimFooter(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if footerNoise[last] || isRuleLine(last) {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.Join(lines, "\n")
}

// isRuleLine reports whether a line consists solely of horizontal-rule
// or box-drawing border characters.
func isRuleLine(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch r {
		case '─', '━', '═', '╭', '╮', '╯', '╰',
			'│', '┃', '┌', '┐', '└', '┘', ' ':
		default:
			return false
		}
	}
	return true
}

// CollapseBlankRuns reduces runs of blank lines to a single blank line
// and trims trailing whitespace from every line.
func CollapseBlankRuns(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Clean runs the full sanitization pipeline over a raw pane capture.
// sent is the prompt text as submitted (used to locate its echo);
// marker is the end marker injected for this request.
func Clean(raw, sent, marker string) (string, error) {
	s := StripANSI(raw)
	s = TruncateAfterEcho(s, sent)
	s = TruncateAtMarker(s, marker)
	s = SkipPreamble(s)
	s = TrimFooter(s)
	s = StripBullets(s)
	s = CollapseBlankRuns(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyResponse
	}
	return s, nil
}

// NormalizeForIdle reduces a pane capture to its substantive content so
// the completion detector can compare successive snapshots. Spinner
// animation and timer chrome change every tick; without this
// normalization, idle detection would never fire while the UI animates.
func NormalizeForIdle(raw string) string {
	s := StripANSI(raw)
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isSpinnerLine(trimmed) || isStatusBarLine(trimmed) {
			continue
		}
		out = append(out, strings.TrimRight(line, " \t\r"))
	}
	return strings.Join(out, "\n")
}

// isSpinnerLine reports whether the line is a working-indicator frame,
// e.g. "✶ Pondering… (3s · ↓ 214 tokens · esc to interrupt)".
func isSpinnerLine(s string) bool {
	for _, f := range spinnerFrames {
		if strings.HasPrefix(s, f) {
			return true
		}
	}
	return false
}

// isStatusBarLine reports whether the line is the agent's status bar
// (the ⏵⏵ row or the elapsed/token counter), which re-renders
// continuously while the agent works.
func isStatusBarLine(s string) bool {
	return strings.Contains(s, "⏵⏵") ||
		strings.Contains(s, "esc to interrupt") ||
		strings.Contains(s, "tokens")
}
