package lifecycle

import (
	"strings"
	"time"
)

// NoteTimestampLayout renders note headers the way the staff console shows dates.
const NoteTimestampLayout = "02/01/2006, 15:04:05"

// NoteSeparator sits between two note blocks.
const NoteSeparator = "\n\n"

// NoteBlock renders a single note:
//
//	[<timestamp>] <identity>:
//	<note>
func NoteBlock(note, identity string, at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(at.In(loc).Format(NoteTimestampLayout))
	b.WriteString("] ")
	b.WriteString(identity)
	b.WriteString(":\n")
	b.WriteString(note)
	return b.String()
}

// JoinNotes appends block to existing notes. Existing text is never rewritten.
func JoinNotes(existing *string, block string) string {
	if existing == nil || *existing == "" {
		return block
	}
	return *existing + NoteSeparator + block
}

// AppendNote returns existing notes followed by a new block.
func AppendNote(existing *string, note, identity string, at time.Time, loc *time.Location) string {
	return JoinNotes(existing, NoteBlock(note, identity, at, loc))
}
