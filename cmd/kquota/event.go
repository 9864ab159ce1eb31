package main

import (
	"fmt"

	"github.com/goodtune/kquota/internal/detector"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Push a detector event to the daemon",
	Long: `Push a detector event, for integrations that observe the foreground
application, visited pages or screen power themselves (detector.source: push).`,
}

func init() {
	eventCmd.AddCommand(
		eventCommand("foreground [APP]", "Report the application now in the foreground (empty for none)", cobra.MaximumNArgs(1),
			func(args []string) detector.Event {
				if len(args) == 0 {
					return detector.Foreground("")
				}
				return detector.Foreground(args[0])
			}),
		eventCommand("domain DOMAIN [BROWSER]", "Report a page visit", cobra.RangeArgs(1, 2),
			func(args []string) detector.Event {
				source := ""
				if len(args) > 1 {
					source = args[1]
				}
				return detector.DomainVisited(args[0], source)
			}),
		eventCommand("screen-off", "Report that the screen turned off", cobra.NoArgs,
			func([]string) detector.Event { return detector.ScreenOff() }),
		eventCommand("screen-on", "Report that the screen turned on", cobra.NoArgs,
			func([]string) detector.Event { return detector.ScreenOn() }),
		eventCommand("user-present", "Report that the user unlocked the device", cobra.NoArgs,
			func([]string) detector.Event { return detector.UserPresent() }),
	)
	rootCmd.AddCommand(eventCmd)
}

func eventCommand(use, short string, args cobra.PositionalArgs, build func([]string) detector.Event) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ev := build(argv)
			if err := client.Publish(cmd.Context(), ev); err != nil {
				return err
			}
			fmt.Printf("Event %s sent\n", ev.Kind)
			return nil
		},
	}
}
