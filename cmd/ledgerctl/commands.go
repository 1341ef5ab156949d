package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/usecase/ledger"
)

func balanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the balance, boxed funds and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, opts, func(a *app) error {
				summary, err := a.dashboard.GetSummary(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Saldo:         %s\n", domain.FormatBRL(summary.Balance))
				fmt.Fprintf(out, "Em caixinhas:  %s (%d)\n", domain.FormatBRL(summary.Boxed), summary.BoxCount)
				fmt.Fprintf(out, "Total:         %s\n", domain.FormatBRL(summary.Total))
				return nil
			})
		},
	}
}

func depositCmd(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "deposit AMOUNT",
		Short: "Add money to the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := domain.ParseAmount(args[0])
			if err != nil {
				return err
			}
			return withLedger(cmd, opts, func(a *app) error {
				snap, err := a.ledger.Deposit(cmd.Context(), amount, description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Depósito realizado. Saldo: %s\n", domain.FormatBRL(snap.Balance))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "description shown on the statement")

	return cmd
}

func withdrawCmd(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "withdraw AMOUNT",
		Short: "Take money out of the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := domain.ParseAmount(args[0])
			if err != nil {
				return err
			}
			return withLedger(cmd, opts, func(a *app) error {
				snap, err := a.ledger.Withdraw(cmd.Context(), amount, description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saque realizado. Saldo: %s\n", domain.FormatBRL(snap.Balance))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "description shown on the statement")

	return cmd
}

func pixCmd(opts *rootOptions) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "pix AMOUNT",
		Short: "Send a Pix transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := domain.ParseAmount(args[0])
			if err != nil {
				return err
			}
			return withLedger(cmd, opts, func(a *app) error {
				snap, err := a.ledger.TransferOut(cmd.Context(), amount, to)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pix enviado. Saldo: %s\n", domain.FormatBRL(snap.Balance))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient, kept as the transaction description")

	return cmd
}

func historyCmd(opts *rootOptions) *cobra.Command {
	var (
		boxFlag string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the statement, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var boxID *uuid.UUID
			if boxFlag != "" {
				parsed, err := uuid.Parse(boxFlag)
				if err != nil {
					return fmt.Errorf("invalid box ID: %w", err)
				}
				boxID = &parsed
			}

			return withLedger(cmd, opts, func(a *app) error {
				txs, total, err := a.dashboard.History(cmd.Context(), limit, offset, boxID)
				if err != nil {
					return err
				}
				printTransactions(cmd.OutOrStdout(), txs)
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d transactions\n", len(txs), total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&boxFlag, "box", "", "only show transactions of this box")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of transactions (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of recent transactions to skip")

	return cmd
}

func showCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show TRANSACTION_ID",
		Short: "Show the details of one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid transaction ID: %w", err)
			}

			return withLedger(cmd, opts, func(a *app) error {
				detail, err := a.dashboard.Transaction(cmd.Context(), id)
				if err != nil {
					return err
				}

				tx := detail.Transaction
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "ID:\t%s\n", tx.ID)
				fmt.Fprintf(w, "Data:\t%s\n", tx.CreatedAt.Local().Format("02/01/2006 15:04:05"))
				fmt.Fprintf(w, "Origem:\t%s\n", tx.Kind.Source())
				fmt.Fprintf(w, "Tipo:\t%s\n", tx.Kind)
				fmt.Fprintf(w, "Valor:\t%s\n", domain.FormatBRL(tx.SignedAmount()))
				if tx.Description != "" {
					fmt.Fprintf(w, "Descrição:\t%s\n", tx.Description)
				}
				if detail.Box != nil {
					fmt.Fprintf(w, "Caixinha:\t%s (%s)\n", detail.Box.Name, detail.Box.ID)
				}
				return w.Flush()
			})
		},
	}
}

func boxCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "box",
		Short: "Manage caixinhas",
	}
	cmd.AddCommand(
		boxCreateCmd(opts),
		boxMoveCmd(opts, "deposit", "Move money from the balance into a box"),
		boxMoveCmd(opts, "withdraw", "Move money from a box back to the balance"),
		boxListCmd(opts),
	)
	return cmd
}

func boxCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		amount      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a box, optionally funded from the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ledger.CreateBoxInput{Name: args[0], Description: description}
			if amount != "" {
				parsed, err := domain.ParseAmount(amount)
				if err != nil {
					return err
				}
				input.InitialAmount = parsed
			}

			return withLedger(cmd, opts, func(a *app) error {
				snap, err := a.ledger.CreateBox(cmd.Context(), input)
				if err != nil {
					return err
				}
				box := snap.Boxes[len(snap.Boxes)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "Caixinha %q criada (%s) com %s\n", box.Name, box.ID, domain.FormatBRL(box.Amount))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "initial amount moved from the balance")
	cmd.Flags().StringVarP(&description, "description", "d", "", "box description")

	return cmd
}

func boxMoveCmd(opts *rootOptions, direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction + " BOX_ID AMOUNT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			boxID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid box ID: %w", err)
			}
			amount, err := domain.ParseAmount(args[1])
			if err != nil {
				return err
			}

			return withLedger(cmd, opts, func(a *app) error {
				move := a.ledger.DepositToBox
				if direction == "withdraw" {
					move = a.ledger.WithdrawFromBox
				}

				snap, err := move(cmd.Context(), boxID, amount)
				if err != nil {
					return err
				}
				box, _ := snap.BoxByID(boxID)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s. Saldo: %s\n",
					box.Name, domain.FormatBRL(box.Amount), domain.FormatBRL(snap.Balance))
				return nil
			})
		},
	}
}

func boxListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List boxes by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, opts, func(a *app) error {
				boxes, err := a.dashboard.ListBoxes(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNOME\tVALOR\tDESCRIÇÃO")
				for _, box := range boxes {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", box.ID, box.Name, domain.FormatBRL(box.Amount), box.Description)
				}
				return w.Flush()
			})
		},
	}
}

func printTransactions(out io.Writer, txs []domain.Transaction) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATA\tORIGEM\tTIPO\tVALOR\tDESCRIÇÃO")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID,
			tx.CreatedAt.Local().Format("02/01/2006 15:04"),
			tx.Kind.Source(),
			tx.Kind,
			domain.FormatBRL(tx.SignedAmount()),
			tx.Description,
		)
	}
	_ = w.Flush()
}
