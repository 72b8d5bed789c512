package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/stockmanagement/internal/auth"
	"github.com/odyssey-erp/stockmanagement/internal/permission"
	"github.com/odyssey-erp/stockmanagement/internal/platform/cache"
)

func newTokenCommand(load configLoader) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Bearer token administration",
	}
	token.AddCommand(newTokenIssueCommand(load), newTokenRevokeCommand(load))
	return token
}

func newTokenIssueCommand(load configLoader) *cobra.Command {
	var userID, username string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a reference data user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			return withTokenStore(cmd.Context(), load, func(store *auth.TokenStore) error {
				tok, err := store.Issue(cmd.Context(), permission.User{ID: id, Username: username})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
				return err
			})
		},
	}
	issue.Flags().StringVar(&userID, "user", "", "reference data user id")
	issue.Flags().StringVar(&username, "username", "", "username recorded with the token")
	_ = issue.MarkFlagRequired("user")
	return issue
}

func newTokenRevokeCommand(load configLoader) *cobra.Command {
	var token string
	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a previously issued bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("invalid --token: empty")
			}
			return withTokenStore(cmd.Context(), load, func(store *auth.TokenStore) error {
				if err := store.Revoke(cmd.Context(), token); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "revoked")
				return err
			})
		},
	}
	revoke.Flags().StringVar(&token, "token", "", "bearer token to revoke")
	_ = revoke.MarkFlagRequired("token")
	return revoke
}

func withTokenStore(ctx context.Context, load configLoader, fn func(*auth.TokenStore) error) error {
	cfg, err := load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(auth.NewTokenStore(client, tokenKeyPrefix, cfg.TokenTTL))
}
