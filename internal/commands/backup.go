package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hisabpati/hisab/internal/backup"
)

func newBackupCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and restore the books as JSON",
	}
	cmd.AddCommand(newBackupExportCommand(opts), newBackupRestoreCommand(opts))
	return cmd
}

func newBackupExportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a backup of the company's books",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.books.Export(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			return withOutput(cmd, args, func(w io.Writer) error {
				return backup.Write(w, p)
			})
		},
	}
}

func newBackupRestoreCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the company's books with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening backup: %w", err)
			}
			defer f.Close()
			p, err := backup.Read(f)
			if err != nil {
				return err
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := a.books.Restore(cmd.Context(), a.company, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d accounts, %d transactions, %d items\n",
				len(p.Accounts), len(p.Transactions), len(p.SubLedgers))
			for _, w := range r.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}
}
