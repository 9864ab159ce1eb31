package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/kquota/internal/config"
	"github.com/goodtune/kquota/internal/control"
	"github.com/goodtune/kquota/internal/engine"
	"github.com/spf13/cobra"
)

var (
	controlURL string
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show quota and session status",
	Long:  `Show the running daemon's quota, session and bonus state, and the most recent actions.`,
	Example: `  kquota status
  kquota status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&controlURL, "url", "", "Control API URL (defaults to control.url from the configuration)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status as JSON")
	rootCmd.AddCommand(statusCmd)
}

// newClient returns a control API client for the --url flag or the
// configured control.url.
func newClient() (*control.Client, error) {
	if controlURL != "" {
		return control.NewClient(controlURL), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return control.NewClient(cfg.Control.URL), nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	st, err := client.Status(cmd.Context())
	if err != nil {
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	printStatus(st)

	records, err := client.Actions(cmd.Context())
	if err != nil {
		return err
	}
	if len(records) > 0 {
		cyan := color.New(color.FgCyan, color.Bold)
		_, _ = cyan.Println("Recent actions:")
		start := 0
		if len(records) > 10 {
			start = len(records) - 10
		}
		for _, rec := range records[start:] {
			fmt.Printf("  %s  %s\n", rec.At.Local().Format("15:04:05"), rec.Action)
		}
		fmt.Println()
	}
	return nil
}

func printStatus(st engine.Status) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	rule := strings.Repeat("━", 50)
	fmt.Println()
	_, _ = cyan.Println(rule)
	_, _ = cyan.Println("KQUOTA STATUS")
	_, _ = cyan.Println(rule)
	fmt.Println()

	fmt.Printf("Status:       %s\n", st.Message)
	fmt.Printf("Blocked apps: %s\n", listOrNone(st.BlockedApps))
	fmt.Printf("Blocked web:  %s\n", listOrNone(st.BlockedDomains))
	fmt.Println()

	_, _ = cyan.Print("Quota:        ")
	switch {
	case st.DailyLimitSeconds == 0:
		_, _ = red.Println("NONE (blocked targets are always blocked)")
	case st.RemainingSeconds == 0:
		_, _ = red.Printf("EXHAUSTED (%s used of %s)\n", seconds(st.UsedTodaySeconds), seconds(st.DailyLimitSeconds))
	default:
		_, _ = green.Printf("%s left of %s\n", seconds(st.RemainingSeconds), seconds(st.DailyLimitSeconds))
	}
	if st.NextResetAt != nil {
		fmt.Printf("Next reset:   %s\n", st.NextResetAt.Local().Format("2006-01-02 15:04:05"))
	} else if st.DailyLimitSeconds > 0 {
		fmt.Printf("Next reset:   %s after first use\n", seconds(st.ResetIntervalSeconds))
	}
	if st.DailyLimitSeconds > 0 && !st.FirstChoiceMade && st.RemainingSeconds > 0 {
		_, _ = yellow.Println("Choice:       waiting for the user to start a timed session")
	}

	if st.Bonus != nil {
		if st.Bonus.Available {
			_, _ = green.Println("Bonus:        available")
		} else {
			cooldown := time.Duration(st.Bonus.RemainingCooldownMs) * time.Millisecond
			_, _ = yellow.Printf("Bonus:        in %s (from %s)\n", cooldown.Round(time.Second), strings.ReplaceAll(st.Bonus.Basis, "_", " "))
		}
	}
	fmt.Println()

	fmt.Printf("Foreground:   %s\n", valueOrNone(st.Foreground))
	if st.Session != nil {
		_, _ = green.Printf("Session:      %s since %s\n", st.Session.Target, st.Session.StartedAt.Local().Format("15:04:05"))
	} else {
		fmt.Println("Session:      (none)")
	}
	if !st.ScreenOn {
		_, _ = yellow.Println("Screen:       off, accrual paused")
	}
	if st.PendingWrite {
		_, _ = red.Println("Storage:      last write failed, retrying")
	}

	fmt.Println()
	_, _ = cyan.Println(rule)
	fmt.Println()
}

func seconds(s uint32) string {
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
