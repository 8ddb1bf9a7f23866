package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultAPIBaseURL = "https://ypg-website.onrender.com"

var (
	apiBaseURL string
	timeout    time.Duration
	actor      string
	logLevel   string
)

func main() {
	c := &cobra.Command{
		Use:           "trashctl",
		Short:         "Review, restore and purge soft-deleted YPG dashboard content",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.PersistentFlags().StringVar(&apiBaseURL, "api", envOr("API_BASE_URL", defaultAPIBaseURL), "entity store base URL")
	c.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "per-request timeout")
	c.PersistentFlags().StringVar(&actor, "actor", envOr("TRASH_ACTOR", "trashctl"), "name recorded in the audit log")
	c.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	c.AddCommand(listCmd())
	c.AddCommand(actionCmd("restore", "Restore deleted items", false))
	c.AddCommand(actionCmd("purge", "Permanently delete items", true))

	if err := c.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return strings.TrimRight(v, "/")
	}
	return fallback
}
