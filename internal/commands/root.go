package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hisabpati/hisab/internal/activity"
	"github.com/hisabpati/hisab/internal/books"
	"github.com/hisabpati/hisab/internal/buildinfo"
	"github.com/hisabpati/hisab/internal/config"
	"github.com/hisabpati/hisab/internal/logging"
	"github.com/hisabpati/hisab/internal/model"
	"github.com/hisabpati/hisab/internal/store"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:     "hisab",
		Short:   "Double-entry books with inventory costing",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to "+config.FileName)

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountCommand(opts),
		newItemCommand(opts),
		newVoucherCommand(opts),
		newReportCommand(opts),
		newAuditCommand(opts),
		newJournalCommand(opts),
		newBackupCommand(opts),
		newActivityCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}

// app is everything a command needs to work on the configured company.
type app struct {
	cfg      *config.Config
	dir      string
	log      *slog.Logger
	store    *store.Store
	books    *books.Service
	activity *activity.Log
	company  books.Company
}

func (o *rootOptions) open() (*app, error) {
	path, err := filepath.Abs(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return openApp(cfg, filepath.Dir(path))
}

func openApp(cfg *config.Config, dir string) (*app, error) {
	logger := logging.New(cfg.Log, os.Stderr)

	dbPath := cfg.Storage.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dir, dbPath)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	acts := activity.New(dir)
	return &app{
		cfg:      cfg,
		dir:      dir,
		log:      logger,
		store:    st,
		books:    books.NewService(st, logger, books.WithActivityLog(acts)),
		activity: acts,
		company:  books.Company{Owner: cfg.Company.Owner, ID: cfg.Company.ID},
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// periodFlags binds --start and --end. Unset bounds default to the
// company's current fiscal year.
type periodFlags struct {
	start, end string
}

func (p *periodFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.start, "start", "", "period start (YYYY-MM-DD), default fiscal year start")
	cmd.Flags().StringVar(&p.end, "end", "", "period end (YYYY-MM-DD), default fiscal year end")
}

func (p *periodFlags) resolve(meta model.CompanyMeta, now time.Time) (start, end time.Time, err error) {
	start, end = meta.FiscalYear(now)
	if p.start != "" {
		if start, err = model.ParseDay(p.start); err != nil {
			return start, end, fmt.Errorf("invalid --start %q: %w", p.start, err)
		}
	}
	if p.end != "" {
		if end, err = model.ParseDay(p.end); err != nil {
			return start, end, fmt.Errorf("invalid --end %q: %w", p.end, err)
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("--end %s is before --start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return start, end, nil
}
