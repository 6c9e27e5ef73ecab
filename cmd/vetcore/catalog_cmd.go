package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clinistack/vetcore"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the drug catalog",
}

var (
	catalogAddSKU     string
	catalogAddName    string
	catalogAddAliases string
	catalogAddSpecies string
	catalogAddRoutes  string
)

var catalogAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a catalog item",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		item := vetcore.CatalogItem{
			SKU:           catalogAddSKU,
			CanonicalName: catalogAddName,
			Aliases:       splitNonEmpty(catalogAddAliases),
			Species:       splitNonEmpty(catalogAddSpecies),
			Routes:        splitNonEmpty(catalogAddRoutes),
		}
		if err := core.UpsertCatalogItem(context.Background(), item); err != nil {
			fail(err)
			return nil
		}

		if jsonOutput {
			outputJSON(item)
			return nil
		}
		fmt.Printf("added %s (%s)\n", item.SKU, item.CanonicalName)
		return nil
	},
}

var catalogSearchLimit int

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog by name or alias",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		hits, err := core.SearchCatalog(args[0], catalogSearchLimit)
		if err != nil {
			fail(err)
			return nil
		}

		if jsonOutput {
			outputJSON(hits)
			return nil
		}
		for _, h := range hits {
			fmt.Printf("%s\t%s\t%.2f\n", h.Item.SKU, h.Item.CanonicalName, h.Score)
		}
		return nil
	},
}

func splitNonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	catalogAddCmd.Flags().StringVar(&catalogAddSKU, "sku", "", "billable SKU (required)")
	catalogAddCmd.Flags().StringVar(&catalogAddName, "name", "", "canonical drug name (required)")
	catalogAddCmd.Flags().StringVar(&catalogAddAliases, "aliases", "", "comma-separated alias spellings")
	catalogAddCmd.Flags().StringVar(&catalogAddSpecies, "species", "", "comma-separated compatible species")
	catalogAddCmd.Flags().StringVar(&catalogAddRoutes, "routes", "", "comma-separated compatible routes")
	_ = catalogAddCmd.MarkFlagRequired("sku")
	_ = catalogAddCmd.MarkFlagRequired("name")

	catalogSearchCmd.Flags().IntVar(&catalogSearchLimit, "limit", 0, "max results (0 = default)")

	catalogCmd.AddCommand(catalogAddCmd, catalogSearchCmd)
	rootCmd.AddCommand(catalogCmd)
}
