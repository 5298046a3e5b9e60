package lifecycle

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingHours(t *testing.T) {
	at := func(day, hour, minute int) time.Time {
		// March 2024: the 4th is a Monday.
		return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{name: "monday 08 to 19", start: at(4, 8, 0), end: at(4, 19, 0), want: 9},
		{name: "saturday 10 to monday 10", start: at(2, 10, 0), end: at(4, 10, 0), want: 1},
		{name: "empty interval", start: at(4, 10, 0), end: at(4, 10, 0), want: 0},
		{name: "end before start", start: at(4, 12, 0), end: at(4, 10, 0), want: 0},
		{name: "partial hour counts its start slot", start: at(4, 17, 30), end: at(4, 17, 45), want: 1},
		{name: "slot starting at 18 excluded", start: at(4, 18, 0), end: at(4, 23, 0), want: 0},
		{name: "full week", start: at(4, 0, 0), end: at(11, 0, 0), want: 45},
		{name: "friday evening to monday morning", start: at(8, 17, 0), end: at(11, 9, 0), want: 1},
		{name: "off-grid start walks from start minute", start: at(4, 8, 30), end: at(4, 10, 30), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WorkingHours(tt.start, tt.end, time.UTC))
		})
	}
}

func TestWorkingHours_UsesLocation(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	// 08:00 UTC on a winter Monday is 09:00 in Rome.
	start := time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	assert.Equal(t, 0, WorkingHours(start, end, time.UTC))
	assert.Equal(t, 1, WorkingHours(start, end, rome))
}

func TestAppendNote(t *testing.T) {
	at := time.Date(2024, 3, 4, 14, 5, 9, 0, time.UTC)

	first := AppendNote(nil, "router rebooted", "alice", at, time.UTC)
	assert.Equal(t, "[04/03/2024, 14:05:09] alice:\nrouter rebooted", first)

	empty := ""
	assert.Equal(t, first, AppendNote(&empty, "router rebooted", "alice", at, time.UTC))

	second := AppendNote(&first, "link stable", "bob", at.Add(time.Minute), time.UTC)
	assert.True(t, strings.HasPrefix(second, first+"\n\n"), "earlier blocks are kept verbatim")
	assert.True(t, strings.HasSuffix(second, "[04/03/2024, 14:06:09] bob:\nlink stable"))
}
