package main

import (
	"fmt"
	"io"

	"github.com/ridloal/product-dashboard/internal/platform/config"
	"github.com/ridloal/product-dashboard/internal/product/domain"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	cfg := config.LoadDashboardConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print the products the store would be seeded with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, closeSeed, err := seedSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSeed()

			products, err := seed.LoadSeed(cmd.Context())
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfg.SeedFile, "seed-file", "s", cfg.SeedFile, "YAML seed file")
	cmd.Flags().StringVar(&cfg.SeedDB.DSN, "seed-dsn", cfg.SeedDB.DSN, "Postgres DSN to read seed products from")
	return cmd
}

// printProducts lists products in two columns.
func printProducts(w io.Writer, list []domain.Product) {
	mid := (len(list) + 1) / 2
	for i := 0; i < len(list)/2; i++ {
		fmt.Fprintf(w, "%-14d : %-40s %-5s %-14d : %-40s\n", list[i].ID, label(list[i]), "  ", list[i+mid].ID, label(list[i+mid]))
	}
	if len(list)%2 != 0 {
		p := list[mid-1]
		fmt.Fprintf(w, "%-14d : %-40s\n", p.ID, label(p))
	}
}

func label(p domain.Product) string {
	return fmt.Sprintf("%s (%.2f %s)", p.Name, p.Price, p.Currency)
}
