package story

import "strings"

// Transcript is the whole conversation with the completion service so far.
// It only grows; every call resends it in full.
type Transcript struct {
	sb strings.Builder
}

// NewTranscript starts a transcript from a seed prompt
func NewTranscript(seed string) *Transcript {
	t := &Transcript{}
	t.sb.WriteString(seed)
	return t
}

func (t *Transcript) Append(s string) {
	t.sb.WriteString(s)
}

// Snapshot returns the transcript text at this point
func (t *Transcript) Snapshot() string {
	return t.sb.String()
}

func (t *Transcript) Len() int {
	return t.sb.Len()
}
