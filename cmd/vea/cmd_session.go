package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/vea-app/vea/internal/store"
)

var (
	sessionOrgID  string
	sessionUserID string
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionListCmd.Flags().StringVar(&sessionOrgID, "org", "", "organization id (uuid)")
	sessionListCmd.Flags().StringVar(&sessionUserID, "user", "", "user id (uuid)")
	sessionListCmd.MarkFlagRequired("org")
	sessionListCmd.MarkFlagRequired("user")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's conversation sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("session list requires a database (set DATABASE_URL)")
		}
		orgID, err := uuid.Parse(sessionOrgID)
		if err != nil {
			return fmt.Errorf("parse --org: %w", err)
		}
		userID, err := uuid.Parse(sessionUserID)
		if err != nil {
			return fmt.Errorf("parse --user: %w", err)
		}

		ctx := context.Background()
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		list, err := pg.ListSessions(ctx, orgID, userID)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tUPDATED")
		for _, s := range list {
			msgs, err := pg.ListMessages(ctx, s.ID, 0)
			count := len(msgs)
			if err != nil {
				count = 0
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				s.ID,
				s.Title,
				count,
				s.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}
