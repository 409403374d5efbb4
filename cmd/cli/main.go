package main

import (
	"fmt"
	"os"

	"github.com/frontier912/pulsewatch/cmd/cli/alerts"
	"github.com/frontier912/pulsewatch/cmd/cli/auth"
	"github.com/frontier912/pulsewatch/cmd/cli/monitors"
	"github.com/frontier912/pulsewatch/cmd/cli/root"
	"github.com/frontier912/pulsewatch/cmd/cli/sweep"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	monitors.InitMonitors(rootCmd)
	alerts.InitAlerts(rootCmd)
	sweep.InitSweep(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
