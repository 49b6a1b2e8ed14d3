package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/stash/internal/app"
	"github.com/templui/stash/internal/config"
	"github.com/templui/stash/internal/seed"
)

func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo accounts, goals and sacrifices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.SeedDemoData = false

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			seeded, err := seed.Run(cmd.Context(), a.Store, a.LedgerService)
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Println("Demo data already present")
				return nil
			}
			fmt.Println("Demo data seeded")
			return nil
		},
	}
}
