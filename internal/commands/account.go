package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/ledger"
	"github.com/hisabpati/hisab/internal/model"
)

func newAccountCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Chart of accounts",
	}
	cmd.AddCommand(
		newAccountListCommand(opts),
		newAccountAddCommand(opts),
		newAccountAddInventoryCommand(opts),
		newAccountRenameCommand(opts),
		newAccountExportCommand(opts),
		newAccountImportCommand(opts),
	)
	return cmd
}

func newAccountListCommand(opts *rootOptions) *cobra.Command {
	var period periodFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			start, end, err := period.resolve(snap.Company, time.Now())
			if err != nil {
				return err
			}
			res, err := a.books.Balances(cmd.Context(), a.company, start, end)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "CODE\tNAME\tLEVEL\tBALANCE\t")
			for _, acct := range ordered(res.Accounts) {
				indent := strings.Repeat("  ", depth(acct.Level))
				display := ledger.DisplayBalance(acct.Type, acct.Balance)
				fmt.Fprintf(tw, "%s\t%s%s\t%s\t%s\t\n", acct.Code, indent, acct.Name, acct.Level, display.StringFixed(2))
			}
			return tw.Flush()
		},
	}
	period.bind(cmd)
	return cmd
}

func depth(l model.AccountLevel) int {
	switch l {
	case model.LevelGroup:
		return 1
	case model.LevelGL:
		return 2
	}
	return 0
}

// ordered lists accounts depth-first: each MAIN, then its groups, each
// followed by its GLs.
func ordered(accts []model.AccountWithTotals) []model.AccountWithTotals {
	children := map[string][]model.AccountWithTotals{}
	for _, a := range accts {
		children[a.ParentID] = append(children[a.ParentID], a)
	}
	var out []model.AccountWithTotals
	var walk func(parent string)
	walk = func(parent string) {
		for _, a := range children[parent] {
			out = append(out, a)
			walk(a.ID)
		}
	}
	walk("")
	return out
}

func newAccountAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <group> <name>",
		Short: "Add a GL account under a group (id or code)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			group, err := resolveAccount(accounts.NewService(snap.Ledger.Accounts), args[0])
			if err != nil {
				return err
			}
			acct, err := a.books.AddAccount(cmd.Context(), a.company, group.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s under %s\n", acct.Code, acct.Name, group.Name)
			return nil
		},
	}
}

func newAccountAddInventoryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-inventory <name>",
		Short: "Add an inventory account and its COGS account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			inv, cogs, err := a.books.AddInventoryAccount(cmd.Context(), a.company, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (COGS %s %s)\n", inv.Code, inv.Name, cogs.Code, cogs.Name)
			return nil
		},
	}
}

func newAccountRenameCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <account> <name>",
		Short: "Rename a GL account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			acct, err := resolveAccount(accounts.NewService(snap.Ledger.Accounts), args[0])
			if err != nil {
				return err
			}
			acct, err = a.books.RenameAccount(cmd.Context(), a.company, acct.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", acct.Code, acct.Name)
			return nil
		},
	}
}

func newItemCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Inventory items",
	}
	cmd.AddCommand(newItemAddCommand(opts), newItemListCommand(opts), newItemTrailCommand(opts))
	return cmd
}

func newItemAddCommand(opts *rootOptions) *cobra.Command {
	var gl, code, qty, rate string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an inventory item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			openingQty, err := decimal.NewFromString(qty)
			if err != nil {
				return fmt.Errorf("invalid --qty %q: %w", qty, err)
			}
			openingRate, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("invalid --rate %q: %w", rate, err)
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			invGL, err := resolveAccount(accounts.NewService(snap.Ledger.Accounts), gl)
			if err != nil {
				return err
			}
			sl, err := a.books.AddItem(cmd.Context(), a.company, model.InventorySubLedger{
				InventoryGLAccountID: invGL.ID,
				ItemName:             args[0],
				ItemCode:             code,
				OpeningQuantity:      openingQty,
				OpeningRate:          openingRate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added item %s (%s) under %s\n", sl.ItemName, sl.ID, invGL.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&gl, "gl", "30001", "inventory account (id or code)")
	cmd.Flags().StringVar(&code, "code", "", "item code")
	cmd.Flags().StringVar(&qty, "qty", "0", "opening quantity")
	cmd.Flags().StringVar(&rate, "rate", "0", "opening rate")
	return cmd
}

func newItemListCommand(opts *rootOptions) *cobra.Command {
	var period periodFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items with quantity, value and average cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			start, end, err := period.resolve(snap.Company, time.Now())
			if err != nil {
				return err
			}

			rows := inventory.ItemReport(snap.Ledger.SubLedgers, snap.Ledger.Movements, start, end)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tITEM\tCODE\tQTY\tVALUE\tAVG COST")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.SubLedger.ID, r.SubLedger.ItemName, r.SubLedger.ItemCode,
					r.Balance.Quantity, r.Balance.Value.StringFixed(2), r.AverageCost.StringFixed(2))
			}
			total := inventory.TotalValue(snap.Ledger.SubLedgers, snap.Ledger.Movements, start, end)
			fmt.Fprintf(tw, "\tTotal\t\t\t%s\t\n", total.StringFixed(2))
			return tw.Flush()
		},
	}
	period.bind(cmd)
	return cmd
}

func newAccountExportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the chart of accounts as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			return withOutput(cmd, args, func(w io.Writer) error {
				return accounts.WriteAccounts(w, snap.Ledger.Accounts)
			})
		},
	}
}

func newAccountImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the chart of accounts from CSV before anything is posted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening chart: %w", err)
			}
			defer f.Close()
			accts, err := accounts.ReadAccounts(f)
			if err != nil {
				return err
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.books.ImportChart(cmd.Context(), a.company, accts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", len(accts))
			return nil
		},
	}
}

func newItemTrailCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trail <item>",
		Short: "List an item's stock movements with their vouchers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			sl, err := resolveItem(snap.Ledger, args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tVOUCHER\tTYPE\tMOVE\tQTY\tRATE\tAMOUNT")
			for _, l := range inventory.AuditTrail(sl.ID, snap.Ledger.Movements, snap.Ledger.Transactions) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", l.Date.Format(time.DateOnly), l.VoucherNo, l.VoucherType,
					l.MovementType, l.Quantity, l.Rate.StringFixed(2), l.Amount.StringFixed(2))
			}
			return tw.Flush()
		},
	}
}
