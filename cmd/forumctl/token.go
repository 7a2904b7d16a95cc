package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-forum-api/internal/config"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Long: `Mint an HS256 bearer token signed with FORUM_JWT_SECRET.

Example:
  forumctl token --user-id 1 --role moderator`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

var (
	tokenUserID uint
	tokenRole   string
	tokenTTL    time.Duration
)

func init() {
	tokenCmd.Flags().UintVar(&tokenUserID, "user-id", 0, "forum user id placed in the sub claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "member", "role claim (member, moderator, admin)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime; 0 disables expiry")
	_ = tokenCmd.MarkFlagRequired("user-id")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, tokenUserID, tokenRole, tokenTTL)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
