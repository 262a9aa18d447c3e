/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Seednode/charades/catalog"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func loadCatalog(cfg *Config) (*catalog.Catalog, error) {
	if cfg.dataDir == "" {
		return catalog.Load(catalog.DefaultFS(), catalog.DefaultPattern, catalog.WithLogger(logger()))
	}

	info, err := os.Stat(cfg.dataDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path is not a directory: %s", cfg.dataDir)
	}

	return catalog.Load(os.DirFS(cfg.dataDir), cfg.dataPattern, catalog.WithLogger(logger()))
}

func watchCatalog(ctx context.Context, cfg *Config, c *catalog.Catalog) error {
	if !cfg.watch {
		return nil
	}

	logf(cfg, "CATALOG: Watching %s for changes", cfg.dataDir)

	return catalog.Watch(ctx, cfg.dataDir, cfg.dataPattern, c, catalog.WithLogger(logger()))
}

func newCatalogCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Summarize the content that would be served, and any invalid entries.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stats := c.Stats()

			problems := make(map[catalog.Category]int)
			for _, p := range c.Problems() {
				problems[p.Category]++
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Category", "Items", "Invalid"})
			table.SetBorder(false)

			for _, category := range catalog.Categories {
				table.Append([]string{
					category.Label(),
					strconv.Itoa(stats.Counts[category]),
					strconv.Itoa(problems[category]),
				})
			}
			table.SetFooter([]string{"Total", strconv.Itoa(stats.Total), strconv.Itoa(len(c.Problems()))})
			table.Render()

			fmt.Fprintf(out, "\nLoaded from: %s\n", strings.Join(c.Files(), ", "))

			if len(c.Problems()) == 0 {
				return nil
			}

			fmt.Fprintln(out)

			table = tablewriter.NewWriter(out)
			table.SetHeader([]string{"Category", "ID", "Title", "Problems"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)

			for _, p := range c.Problems() {
				table.Append([]string{
					p.Category.Label(),
					p.ID,
					p.Title,
					strings.Join(p.Errors, "; "),
				})
			}
			table.Render()

			return nil
		},
	}
}
