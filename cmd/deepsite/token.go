package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	pkgauth "github.com/matiasleandrokruk/deepsite/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with JWT_SECRET",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return usageError{errors.New("--subject is required")}
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			issuer, err := pkgauth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)
			if err != nil {
				return fmt.Errorf("JWT_SECRET must be set to issue tokens: %w", err)
			}
			token, err := issuer.GenerateJWT(subject)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "token subject (who the token is for)")
	return cmd
}
