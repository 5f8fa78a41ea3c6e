package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"rental-marketplace/internal/common/database"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/validation"
	"rental-marketplace/internal/listings"
	"rental-marketplace/internal/search"

	"github.com/spf13/cobra"
)

var dryRun bool

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Listing data tooling",
}

var listingsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Validate a listing JSON array and upsert and index it",
	Args:  cobra.ExactArgs(1),
	RunE:  runListingsImport,
}

var listingsReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every stored listing to the search index",
	Args:  cobra.NoArgs,
	RunE:  runListingsReindex,
}

func init() {
	listingsImportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only")
	listingsCmd.AddCommand(listingsImportCmd, listingsReindexCmd)
}

func runListingsImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	validator, err := validation.NewValidator()
	if err != nil {
		return err
	}

	if dryRun {
		parsed, err := listings.NewImporter(nil, nil, nil, validator, logger.NewNoOpLogger()).Parse(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d listings are valid\n", len(parsed))
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.NewStructured(cfg.Logging.Level, "console")

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}

	index := search.NewIndex(es.Client, cfg.Database.Elasticsearch.ListingIndex)
	if err := index.EnsureIndex(cmd.Context()); err != nil {
		return err
	}
	cache := search.NewCachedSearcher(index, rdb.Client, time.Duration(cfg.Search.CacheTTL)*time.Second, log)

	report, err := listings.NewImporter(listings.NewRepository(pg.DB), index, cache, validator, log).Import(cmd.Context(), raw)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func runListingsReindex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}

	all, err := listings.NewRepository(pg.DB).All(cmd.Context())
	if err != nil {
		return err
	}
	index := search.NewIndex(es.Client, cfg.Database.Elasticsearch.ListingIndex)
	if err := index.EnsureIndex(cmd.Context()); err != nil {
		return err
	}
	if err := index.IndexListings(cmd.Context(), all); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d listings into %s\n", len(all), index.Name())
	return nil
}
