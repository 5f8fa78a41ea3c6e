package main

import (
	"context"
	"encoding/json"
	"fmt"

	"rental-marketplace/internal/common/database"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/quota"

	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Inspect daily usage quotas",
}

var quotaShowCmd = &cobra.Command{
	Use:   "show <user-id> [feature...]",
	Short: "Show today's usage for a user without consuming any",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuotaShow,
}

func init() {
	quotaCmd.AddCommand(quotaShowCmd)
}

func runQuotaShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	qcfg, err := quota.LoadConfig(cfg.Quota)
	if err != nil {
		return err
	}

	var store quota.Store
	switch cfg.Quota.Backend {
	case "postgres":
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
		store, err = quota.NewStore(cfg.Quota.Backend, nil, pg.DB, cfg.Quota.MaxRetries)
		if err != nil {
			return err
		}
	default:
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store, err = quota.NewStore(cfg.Quota.Backend, rdb.Client, nil, cfg.Quota.MaxRetries)
		if err != nil {
			return err
		}
	}

	gate := quota.NewGate(store, qcfg, logger.NewNoOpLogger())
	return printQuota(cmd, gate, args[0], args[1:])
}

type quotaReader interface {
	Features() []string
	Status(ctx context.Context, userID, feature string) (*quota.Decision, error)
}

func printQuota(cmd *cobra.Command, gate quotaReader, userID string, features []string) error {
	if len(features) == 0 {
		features = gate.Features()
	}

	decisions := make([]*quota.Decision, 0, len(features))
	for _, f := range features {
		d, err := gate.Status(cmd.Context(), userID, f)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		decisions = append(decisions, d)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(decisions)
}
