package detect

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Marker is the unique end-of-response string the agent is instructed
// to print when it has finished. Randomizing the suffix per request
// means a marker echoed from an earlier run can never satisfy this one.
type Marker string

// NewMarker generates a fresh marker for one request.
func NewMarker() Marker {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return Marker(fmt.Sprintf("===PIPE_END_%s===", suffix))
}

// Instruction returns the suffix appended to a prompt telling the agent
// to emit the marker after its complete response.
func (m Marker) Instruction() string {
	return fmt.Sprintf(" (When done, print %s on its own line)", string(m))
}

// StandaloneCount counts lines consisting solely of the marker. Counting
// rather than mere presence lets the detector ignore markers that were
// already on screen at submission time: the instruction echo contains
// the marker text inline, and an uncleared pane may hold one from a
// previous response.
func (m Marker) StandaloneCount(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == string(m) {
			n++
		}
	}
	return n
}
