package main

import (
	"fmt"

	"contact-gateway/internal/config"

	"github.com/spf13/cobra"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration and report settings that disable delivery",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}

		out := cmd.OutOrStdout()
		for _, w := range cfg.Warnings() {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		fmt.Fprintf(out, "ok: ratelimit=%s (%d per %s) mail=%s stats=%s\n",
			cfg.RateLimit.Backend, cfg.RateLimit.Max, cfg.RateLimit.Window,
			cfg.Mail.Channel, cfg.Stats.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}
