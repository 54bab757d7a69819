package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gwi.com/beauty-box/internal/app"
	"gwi.com/beauty-box/internal/core"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withApp opens the store for the duration of run.
func withApp(cmd *cobra.Command, open opener, run func(a *app.App) error) error {
	a, err := open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return run(a)
}

func newSessionsCmd(open opener) *cobra.Command {
	sessionsCmd := &cobra.Command{Use: "sessions", Short: "Session operations"}
	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions with persisted state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(a *app.App) error {
				ids, err := a.Namespaces()
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	})
	return sessionsCmd
}

func newOrdersCmd(open opener, session sessionFlag) *cobra.Command {
	ordersCmd := &cobra.Command{Use: "orders", Short: "Order history operations"}

	ordersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the order history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := session()
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(a *app.App) error {
				orders, _ := a.Orders.History(ns)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tITEMS\tTOTAL")
				for _, o := range orders {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\n", o.ID, o.Date.Format("2006-01-02 15:04"), o.Status, len(o.Items), o.Total)
				}
				return tw.Flush()
			})
		},
	})

	ordersCmd.AddCommand(&cobra.Command{
		Use:   "dedupe",
		Short: "Drop repeated order ids from the stored history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := session()
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(a *app.App) error {
				orders, report := a.Orders.History(ns)
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d duplicate order(s), %d remain\n", report.Removed, len(orders))
				return nil
			})
		},
	})

	var out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the order history as an .xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := session()
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(a *app.App) error {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				if err := a.Orders.ExportXLSX(ns, f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "orders.xlsx", "Output file")
	ordersCmd.AddCommand(exportCmd)

	return ordersCmd
}

func newSubscriptionCmd(open opener, session sessionFlag) *cobra.Command {
	subCmd := &cobra.Command{Use: "subscription", Short: "Subscription operations"}

	subCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the subscription and its prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := session()
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(a *app.App) error {
				sub := a.Subscriptions.Load(ns)
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"subscription": sub,
					"prices":       core.ComputePrices(sub.Products, sub.Plan),
				})
			})
		},
	})

	subCmd.AddCommand(&cobra.Command{
		Use:   "replay",
		Short: "Rebuild the box contents from the catalog default box and the order history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := session()
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(a *app.App) error {
				history, _ := a.Orders.History(ns)
				products := core.Replay(a.Catalog.DefaultBox(), history)
				w := cmd.OutOrStdout()
				for _, p := range products {
					fmt.Fprintf(w, "%s\t%s\t%.2f\n", p.ID, p.Name, p.Price)
				}
				return nil
			})
		},
	})

	return subCmd
}

func newImportCmd(open opener, session sessionFlag) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add the products in a .csv, .json or .xlsx file to the subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := session()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return withApp(cmd, open, func(a *app.App) error {
				res, err := a.Subscriptions.Import(ns, filepath.Base(args[0]), data)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newStateCmd(open opener, session sessionFlag) *cobra.Command {
	stateCmd := &cobra.Command{Use: "state", Short: "Raw persisted keys of a session"}

	stateCmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := session()
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(a *app.App) error {
				keys, err := a.State.Keys(ns)
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	})

	stateCmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print the stored text of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := session()
			if err != nil {
				return err
			}
			return withApp(cmd, open, func(a *app.App) error {
				raw, ok, err := a.State.Raw(ns, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("session %s has no key %q", ns, args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), raw)
				return nil
			})
		},
	})

	return stateCmd
}
