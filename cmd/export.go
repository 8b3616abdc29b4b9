package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"repocrawler/internal/config"
	"repocrawler/pkg/logger"

	"github.com/doug-martin/goqu/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportCommand constructs the 'export' subcommand that streams every
// collected repository, ordered by star count descending, to a CSV file.
func exportCommand(cfg *config.Config) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exports collected repositories to a CSV file",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			out, err := os.Create(outPath)
			if err != nil {
				logger.Fatal(ctx, "could not create output file", zap.Error(err))
			}
			defer out.Close()

			rows, err := strg.Builder.From("github.repository").
				Select("organization_name", "repository_name", "total_stars").
				Order(goqu.I("total_stars").Desc()).
				Executor().QueryContext(ctx)
			if err != nil {
				logger.Fatal(ctx, "could not query repositories", zap.Error(err))
			}
			defer rows.Close()

			w := csv.NewWriter(out)
			if err := w.Write([]string{"organization", "repository", "stars"}); err != nil {
				logger.Fatal(ctx, "could not write csv header", zap.Error(err))
			}

			written := 0
			for rows.Next() {
				var org, name string
				var stars int
				if err := rows.Scan(&org, &name, &stars); err != nil {
					logger.Fatal(ctx, "could not scan repository row", zap.Error(err))
				}

				if err := w.Write([]string{org, name, fmt.Sprint(stars)}); err != nil {
					logger.Fatal(ctx, "could not write csv row", zap.Error(err))
				}
				written++
			}
			if err := rows.Err(); err != nil {
				logger.Fatal(ctx, "error iterating repository rows", zap.Error(err))
			}

			w.Flush()
			if err := w.Error(); err != nil {
				logger.Fatal(ctx, "could not flush csv writer", zap.Error(err))
			}

			logger.Info(ctx, "export complete", zap.String("path", outPath), zap.Int("rows", written))
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "repositories.csv", "Output CSV file path")

	return cmd
}
