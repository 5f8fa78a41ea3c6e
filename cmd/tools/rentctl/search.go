package main

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"rental-marketplace/internal/common/config"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/geocode"
	"rental-marketplace/internal/search"

	"github.com/spf13/cobra"
)

var (
	searchFilters search.Filters
	skipGeocode   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search tooling",
}

var searchBuildCmd = &cobra.Command{
	Use:   "build [text...]",
	Short: "Print the index request built for search text and filters",
	RunE:  runSearchBuild,
}

func init() {
	f := searchBuildCmd.Flags()
	f.IntVar(&searchFilters.MinRent, "min-rent", 0, "minimum monthly rent")
	f.IntVar(&searchFilters.MaxRent, "max-rent", 0, "maximum monthly rent (5000 means no limit)")
	f.StringVar(&searchFilters.Gender, "gender", search.AnyValue, "gender preference")
	f.StringVar(&searchFilters.RoomType, "room-type", search.AnyValue, "room type")
	f.BoolVar(&skipGeocode, "no-geocode", false, "treat text as keywords without calling the geocoder")
	searchCmd.AddCommand(searchBuildCmd)
}

func runSearchBuild(cmd *cobra.Command, args []string) error {
	var geocoder search.Geocoder
	builderCfg := search.DefaultBuilderConfig()

	if !skipGeocode {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		builderCfg.HitsPerPage = cfg.Search.HitsPerPage
		builderCfg.GeoRadiusMeters = cfg.Search.GeoRadiusMeters
		builderCfg.MaxRent = cfg.Search.MaxRent
		geocoder = geocode.NewClient(geocode.Config{
			BaseURL: cfg.APIs.Geocoding.BaseURL,
			APIKey:  cfg.APIs.Geocoding.APIKey,
			Region:  cfg.APIs.Geocoding.Region,
			Timeout: config.GetDuration(cfg.APIs.Geocoding.Timeout),
		}, logger.NewNoOpLogger())
	}

	builder := search.NewBuilder(geocoder, builderCfg, logger.NewNoOpLogger())
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	intent, req := builder.Build(ctx, strings.Join(args, " "), searchFilters)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{"intent": intent, "request": req})
}
