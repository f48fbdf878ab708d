package main

import (
	"fmt"
	"strconv"

	"github.com/Saviken/TNH-Performance-Target/internal/config"
	"github.com/Saviken/TNH-Performance-Target/internal/middleware"
	"github.com/Saviken/TNH-Performance-Target/internal/pms/repository"
	"github.com/spf13/cobra"
)

// newTokenCmd 为已有用户签发访问令牌，登录由外部身份系统负责
func newTokenCmd() *cobra.Command {
	var userID uint64

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("jwt.secret is not configured")
			}
			db, err := initDatabase(cfg.Database, false)
			if err != nil {
				return err
			}

			u, err := repository.NewUserRepository(db).FindByID(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if !u.IsActive {
				return fmt.Errorf("user %s is inactive", u.Username)
			}

			token, err := middleware.IssueToken(cfg.JWT.Secret, cfg.JWT.Issuer,
				strconv.FormatUint(u.ID, 10), u.Username, u.Email, []string{u.RoleValue()}, cfg.JWT.AccessTokenExpire)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
