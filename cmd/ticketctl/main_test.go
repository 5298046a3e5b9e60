package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "hash-password", "--cost", "4", "changeme")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "$2a$04$"), out)
	assert.NoError(t, auth.ComparePassword(out, "changeme"))
}

func TestHashPasswordRequiresArgument(t *testing.T) {
	_, err := run(t, "hash-password")
	assert.Error(t, err)
}

func TestWorkingHours(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "over a weekend",
			args: []string{"--from", "2024-03-01 17:00", "--to", "2024-03-04 10:00"},
			want: "2",
		},
		{
			name: "full weekday",
			args: []string{"--from", "2024-03-04 08:00", "--to", "2024-03-04 20:00"},
			want: "9",
		},
		{
			name: "rfc3339 input",
			args: []string{"--from", "2024-03-04T09:00:00+01:00", "--to", "2024-03-04T12:00:00+01:00"},
			want: "3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"working-hours"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestWorkingHoursRejectsBadInput(t *testing.T) {
	_, err := run(t, "working-hours", "--from", "yesterday", "--to", "2024-03-04 10:00")
	assert.ErrorContains(t, err, "--from")

	_, err = run(t, "working-hours", "--from", "2024-03-04 10:00", "--to", "2024-03-04 12:00", "--timezone", "Mars/Olympus")
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestParseInstant(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	got, err := parseInstant("2024-07-01 09:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 9, 30, 0, 0, loc), got)
}
