package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/kquota/internal/control"
	"github.com/spf13/cobra"
)

var bonusCmd = &cobra.Command{
	Use:   "bonus",
	Short: "Request a bonus once the daily quota is used up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		granted, err := client.GrantBonus(cmd.Context())
		return reportBonus(granted, err)
	},
}

var chooseCmd = &cobra.Command{
	Use:   "choose",
	Short: "Continue from the negotiation screen",
	Long: `Accept the negotiation screen: with time left this starts the timed
session, with the quota used up it requests a bonus.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		granted, err := client.Choose(cmd.Context())
		if err == nil && granted == 0 {
			color.New(color.FgGreen, color.Bold).Println("Timed session started")
			return nil
		}
		return reportBonus(granted, err)
	},
}

func init() {
	rootCmd.AddCommand(bonusCmd)
	rootCmd.AddCommand(chooseCmd)
}

func reportBonus(granted uint32, err error) error {
	var apiErr *control.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		yellow := color.New(color.FgYellow, color.Bold)
		if ms := apiErr.Response.RemainingCooldownMs; ms > 0 {
			cooldown := (time.Duration(ms) * time.Millisecond).Round(time.Second)
			yellow.Printf("No bonus yet, next one in %s\n", cooldown)
		} else {
			yellow.Println(apiErr.Response.Message)
		}
		return nil
	}
	if err != nil {
		return err
	}

	color.New(color.FgGreen, color.Bold).Printf("Bonus granted: %s\n", time.Duration(granted)*time.Second)
	return nil
}
