package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/security"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/app/bootstrap"
)

func newRecomputeCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Run the weekly recompute for the week containing --at",
		Long:  "Run the weekly recompute for the week containing --at. Without --at the week that closed most recently is finalized.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when := time.Now().UTC().AddDate(0, 0, -7)
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				when = parsed
			}
			configPath, _ := cmd.Flags().GetString("config")
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
			defer cancel()
			runtime, err := bootstrap.NewRuntime(ctx, configPath)
			if err != nil {
				return err
			}
			defer runtime.Close(context.Background())
			run, err := runtime.RecomputeOnce(ctx, when)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Instant inside the week to recompute (RFC3339, default one week ago)")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := bootstrap.LoadConfig(configPath)
			if err != nil {
				return err
			}
			signer, err := security.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
			if err != nil {
				return err
			}
			token, err := signer.Sign(subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "Token subject (agent id)")
	cmd.Flags().StringVar(&role, "role", "agent", "Token role: agent or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
