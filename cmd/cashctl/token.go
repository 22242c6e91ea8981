package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cashbook/internal/middleware"
)

func tokenCmd(a *app) *cobra.Command {
	var subject, name, email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token for a subject",
		Long: `Signs an HS256 access token with JWT_SECRET and JWT_ISSUER.

Useful for local development and smoke tests where no identity provider
is available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			if ttl > 0 {
				cfg.JWTExpirationDur = ttl
			}
			token, err := middleware.GenerateAccessToken(subject, name, email, &cfg)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "owner identity to embed as the token subject")
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: JWT_EXPIRES_IN)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
