package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spec-kit/helpdesk/internal/lifecycle"
)

var inputLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

func newWorkingHoursCmd(v *viper.Viper) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "working-hours",
		Short: "Count business hours (Mon-Fri 09-18) between two instants",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(v.GetString("timezone"))
			if err != nil {
				return fmt.Errorf("invalid timezone: %w", err)
			}
			start, err := parseInstant(from, loc)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := parseInstant(to, loc)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), lifecycle.WorkingHours(start, end, loc))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start instant")
	cmd.Flags().StringVar(&to, "to", "", "end instant")
	cmd.Flags().String("timezone", "Europe/Rome", "business calendar timezone")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = v.BindPFlag("timezone", cmd.Flags().Lookup("timezone"))
	return cmd
}

// parseInstant accepts RFC 3339 or a wall-clock time in loc.
func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", raw)
}
