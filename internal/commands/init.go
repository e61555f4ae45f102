package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hisabpati/hisab/internal/config"
	"github.com/hisabpati/hisab/internal/model"
)

func newInitCommand() *cobra.Command {
	var name, companyID, owner, fiscalStart string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize books for a new company",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(companyID, name, owner)
			cfg.Fiscal.YearStart = fiscalStart
			return runInit(cmd.Context(), cmd, absDir, cfg)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "company name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&companyID, "id", "main", "company id")
	cmd.Flags().StringVar(&owner, "owner", defaultOwner(), "owning user id")
	cmd.Flags().StringVar(&fiscalStart, "fiscal-start", "01-01", "fiscal year start (MM-DD)")

	return cmd
}

func defaultOwner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "owner"
}

func runInit(ctx context.Context, cmd *cobra.Command, dir string, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	fiscalStart, err := cfg.FiscalYearStart()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("creating directory logs: %w", err)
	}
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	a, err := openApp(cfg, dir)
	if err != nil {
		return err
	}
	defer a.Close()

	meta := model.CompanyMeta{Name: cfg.Company.Name, FiscalYearStart: fiscalStart}
	if _, err := a.books.Init(ctx, a.company, meta); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized books for %s at %s\n", cfg.Company.Name, dir)
	return nil
}
