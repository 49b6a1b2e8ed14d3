package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/stash/internal/app"
	"github.com/templui/stash/internal/config"
)

// TokenCmd mints a bearer token for an existing account. Useful for poking
// the API with curl without going through Google sign-in.
func TokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <account-id>",
		Short: "Print a signed JWT for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.SeedDemoData = false

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.Store.Accounts.ByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("account %s: %w", args[0], err)
			}

			token, err := a.AuthService.GenerateJWT(account.ID)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}
