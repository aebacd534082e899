package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report gateway liveness and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, cleanup, err := buildGateway()
		if err != nil {
			return err
		}
		defer cleanup()

		h := gw.Health()
		fmt.Printf("status: %s\nversion: %s\nuptime_seconds: %.2f\n", h.Status, h.Version.String(), h.UptimeSeconds)
		return nil
	},
}
