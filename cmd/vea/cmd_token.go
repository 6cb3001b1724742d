package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vea-app/vea/internal/httpapi"
	"github.com/vea-app/vea/internal/types"
)

var (
	tokenOrgID  string
	tokenUserID string
	tokenTTL    time.Duration
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenOrgID, "org", "", "organization id (uuid)")
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user id (uuid)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("org")
	tokenCmd.MarkFlagRequired("user")
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development access token",
	Long:  "Signs a JWT for the given user and organization with the configured auth secret. Intended for development and API testing.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cfg.Auth.Secret == "" {
			return fmt.Errorf("auth.secret is required (set VEA_AUTH_SECRET)")
		}
		orgID, err := uuid.Parse(tokenOrgID)
		if err != nil {
			return fmt.Errorf("parse --org: %w", err)
		}
		userID, err := uuid.Parse(tokenUserID)
		if err != nil {
			return fmt.Errorf("parse --user: %w", err)
		}

		token, err := httpapi.NewAccessToken(types.Identity{UserID: userID, OrgID: orgID}, cfg.Auth.Secret, tokenTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}
