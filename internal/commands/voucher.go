package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/books"
	"github.com/hisabpati/hisab/internal/model"
	"github.com/hisabpati/hisab/internal/voucher"
)

func newVoucherCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voucher",
		Short: "Post, edit and void vouchers",
	}
	cmd.AddCommand(
		newVoucherJournalCommand(opts, false),
		newVoucherJournalCommand(opts, true),
		newVoucherSaleCommand(opts, false),
		newVoucherSaleCommand(opts, true),
		newVoucherPurchaseCommand(opts, false),
		newVoucherPurchaseCommand(opts, true),
		newVoucherVoidCommand(opts),
		newVoucherListCommand(opts),
	)
	return cmd
}

// voucherFlags are shared by every posting command.
type voucherFlags struct {
	date        string
	description string
}

func (f *voucherFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "voucher date (YYYY-MM-DD), default today")
	cmd.Flags().StringVarP(&f.description, "description", "m", "", "narration")
}

func (f *voucherFlags) day() (time.Time, error) {
	if f.date == "" {
		return model.TruncateDay(time.Now()), nil
	}
	d, err := model.ParseDay(f.date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", f.date, err)
	}
	return d, nil
}

func printReceipt(w, errw io.Writer, verb string, r books.Receipt) {
	for _, p := range r.Postings {
		tx := p.Transaction
		debit, _ := tx.Totals()
		fmt.Fprintf(w, "%s %s %s %s (%s)\n", verb, tx.VoucherType, tx.VoucherNo, debit.StringFixed(2), tx.Date.Format(time.DateOnly))
		verb = "Posted"
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(errw, "warning: %s\n", warn)
	}
}

func newVoucherJournalCommand(opts *rootOptions, edit bool) *cobra.Command {
	var vf voucherFlags
	var voucherType, reference string
	var debits, credits []string

	use, short, nargs := "journal", "Post a receipt, payment or journal voucher", cobra.NoArgs
	if edit {
		use, short, nargs = "edit-journal <voucher>", "Replace a receipt, payment or journal voucher", cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := vf.day()
			if err != nil {
				return err
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
			entries, err := journalEntries(accounts.NewService(snap.Ledger.Accounts), debits, credits)
			if err != nil {
				return err
			}
			req := voucher.JournalRequest{
				VoucherType: model.VoucherType(strings.ToUpper(voucherType)),
				Date:        date,
				Description: vf.description,
				Reference:   reference,
				Entries:     entries,
			}

			var r books.Receipt
			verb := "Posted"
			if edit {
				tx, err := resolveTransaction(snap.Ledger, args[0])
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("type") {
					req.VoucherType = ""
				}
				r, err = a.books.EditJournal(cmd.Context(), a.company, tx.ID, req)
				if err != nil {
					return err
				}
				verb = "Reversed"
			} else {
				r, err = a.books.PostJournal(cmd.Context(), a.company, req)
				if err != nil {
					return err
				}
			}
			printReceipt(cmd.OutOrStdout(), cmd.ErrOrStderr(), verb, r)
			return nil
		},
	}
	vf.bind(cmd)
	cmd.Flags().StringVar(&voucherType, "type", string(model.VoucherJournal), "RECEIPT, PAYMENT or JOURNAL")
	cmd.Flags().StringVar(&reference, "ref", "", "external reference")
	cmd.Flags().StringArrayVar(&debits, "dr", nil, "debit line ACCOUNT=AMOUNT (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "cr", nil, "credit line ACCOUNT=AMOUNT (repeatable)")
	return cmd
}

func newVoucherSaleCommand(opts *rootOptions, edit bool) *cobra.Command {
	var vf voucherFlags
	var receivable, revenue string
	var items []string

	use, short, nargs := "sale", "Post a sales voucher", cobra.NoArgs
	if edit {
		use, short, nargs = "edit-sale <voucher>", "Replace a sales voucher", cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := vf.day()
			if err != nil {
				return err
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
			chart := accounts.NewService(snap.Ledger.Accounts)
			recv, err := resolveAccount(chart, receivable)
			if err != nil {
				return err
			}
			req := voucher.SalesRequest{
				Date:                date,
				Description:         vf.description,
				ReceivableAccountID: recv.ID,
			}
			if revenue != "" {
				rev, err := resolveAccount(chart, revenue)
				if err != nil {
					return err
				}
				req.RevenueAccountID = rev.ID
			}
			if req.Items, err = itemRequests(snap.Ledger, items); err != nil {
				return err
			}

			var r books.Receipt
			verb := "Posted"
			if edit {
				tx, err := resolveTransaction(snap.Ledger, args[0])
				if err != nil {
					return err
				}
				r, err = a.books.EditSale(cmd.Context(), a.company, tx.ID, req)
				if err != nil {
					return err
				}
				verb = "Reversed"
			} else {
				r, err = a.books.PostSale(cmd.Context(), a.company, req)
				if err != nil {
					return err
				}
			}
			printReceipt(cmd.OutOrStdout(), cmd.ErrOrStderr(), verb, r)
			return nil
		},
	}
	vf.bind(cmd)
	cmd.Flags().StringVar(&receivable, "receivable", "20001", "receivable or cash account (id or code)")
	cmd.Flags().StringVar(&revenue, "revenue", "", "revenue account, default the sales account")
	cmd.Flags().StringArrayVar(&items, "item", nil, "item line ITEM=QTY@PRICE (repeatable)")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newVoucherPurchaseCommand(opts *rootOptions, edit bool) *cobra.Command {
	var vf voucherFlags
	var payable string
	var items []string

	use, short, nargs := "purchase", "Post a purchase voucher", cobra.NoArgs
	if edit {
		use, short, nargs = "edit-purchase <voucher>", "Replace a purchase voucher", cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := vf.day()
			if err != nil {
				return err
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
			pay, err := resolveAccount(accounts.NewService(snap.Ledger.Accounts), payable)
			if err != nil {
				return err
			}
			req := voucher.PurchaseRequest{
				Date:             date,
				Description:      vf.description,
				PayableAccountID: pay.ID,
			}
			if req.Items, err = itemRequests(snap.Ledger, items); err != nil {
				return err
			}

			var r books.Receipt
			verb := "Posted"
			if edit {
				tx, err := resolveTransaction(snap.Ledger, args[0])
				if err != nil {
					return err
				}
				r, err = a.books.EditPurchase(cmd.Context(), a.company, tx.ID, req)
				if err != nil {
					return err
				}
				verb = "Reversed"
			} else {
				r, err = a.books.PostPurchase(cmd.Context(), a.company, req)
				if err != nil {
					return err
				}
			}
			printReceipt(cmd.OutOrStdout(), cmd.ErrOrStderr(), verb, r)
			return nil
		},
	}
	vf.bind(cmd)
	cmd.Flags().StringVar(&payable, "payable", "70001", "payable or cash account (id or code)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "item line ITEM=QTY@COST (repeatable)")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newVoucherVoidCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "void <voucher>",
		Short: "Reverse a voucher",
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
			tx, err := resolveTransaction(snap.Ledger, args[0])
			if err != nil {
				return err
			}
			r, err := a.books.Void(cmd.Context(), a.company, tx.ID)
			if err != nil {
				return err
			}
			printReceipt(cmd.OutOrStdout(), cmd.ErrOrStderr(), "Reversed", r)
			return nil
		},
	}
}

func newVoucherListCommand(opts *rootOptions) *cobra.Command {
	var period periodFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vouchers in voucher number order",
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

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VOUCHER\tDATE\tTYPE\tAMOUNT\tDESCRIPTION\tNOTE")
			for _, tx := range voucher.SortByVoucherNo(snap.Ledger.Transactions) {
				d := model.TruncateDay(tx.Date)
				if d.Before(start) || d.After(end) {
					continue
				}
				note := ""
				switch {
				case tx.IsReversal():
					note = "reversal"
				case snap.Ledger.IsReversed(tx.ID):
					note = "reversed"
				}
				debit, _ := tx.Totals()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", tx.VoucherNo, d.Format(time.DateOnly), tx.VoucherType,
					debit.StringFixed(2), tx.Description, note)
			}
			return tw.Flush()
		},
	}
	period.bind(cmd)
	return cmd
}
