package main

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Change the block policy and quota settings",
	Long: `Change what is blocked and how much time is allowed. Every change is an
idempotent replacement; the daemon picks it up on its next tick.`,
}

var policyAppsCmd = &cobra.Command{
	Use:   "apps [APP...]",
	Short: "Replace the set of blocked applications",
	Example: `  kquota policy apps firefox steam
  kquota policy apps            # clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.SetBlockedApps(cmd.Context(), args); err != nil {
			return err
		}
		fmt.Printf("Blocked apps set (%d)\n", len(args))
		return nil
	},
}

var policyDomainsCmd = &cobra.Command{
	Use:   "domains [DOMAIN...]",
	Short: "Replace the set of blocked website domains",
	Example: `  kquota policy domains youtube.com https://www.reddit.com/
  kquota policy domains         # clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.SetBlockedDomains(cmd.Context(), args); err != nil {
			return err
		}
		fmt.Printf("Blocked domains set (%d)\n", len(args))
		return nil
	},
}

var policyLimitCmd = &cobra.Command{
	Use:   "limit DURATION",
	Short: "Set the daily limit (0 disables the quota)",
	Example: `  kquota policy limit 1h30m
  kquota policy limit 5400
  kquota policy limit 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secs, err := parseSeconds(args[0])
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.SetDailyLimit(cmd.Context(), secs); err != nil {
			return err
		}
		fmt.Printf("Daily limit set to %s\n", time.Duration(secs)*time.Second)
		return nil
	},
}

var policyResetIntervalCmd = &cobra.Command{
	Use:     "reset-interval DURATION",
	Short:   "Set how long a quota epoch lasts",
	Example: `  kquota policy reset-interval 24h`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secs, err := parseSeconds(args[0])
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.SetResetInterval(cmd.Context(), secs); err != nil {
			return err
		}
		fmt.Printf("Reset interval set to %s\n", time.Duration(secs)*time.Second)
		return nil
	},
}

var policyBonusIntervalCmd = &cobra.Command{
	Use:     "bonus-interval DURATION",
	Short:   "Set the cooldown between bonus grants",
	Example: `  kquota policy bonus-interval 1h`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secs, err := parseSeconds(args[0])
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.SetBonusInterval(cmd.Context(), secs); err != nil {
			return err
		}
		fmt.Printf("Bonus interval set to %s\n", time.Duration(secs)*time.Second)
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyAppsCmd)
	policyCmd.AddCommand(policyDomainsCmd)
	policyCmd.AddCommand(policyLimitCmd)
	policyCmd.AddCommand(policyResetIntervalCmd)
	policyCmd.AddCommand(policyBonusIntervalCmd)
	rootCmd.AddCommand(policyCmd)
}

// parseSeconds accepts a Go duration ("90m") or a bare number of seconds.
func parseSeconds(s string) (uint32, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(n), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds or a duration like 1h30m", s)
	}
	if d < 0 || d/time.Second > math.MaxUint32 {
		return 0, fmt.Errorf("duration %q out of range", s)
	}
	return uint32(d / time.Second), nil
}
