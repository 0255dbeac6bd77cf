package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jmerrifield20/jugtracker/pkg/client"
	"github.com/spf13/cobra"
)

var insecure bool

func init() {
	for _, c := range []*cobra.Command{filledCmd, listCmd, fillCmd, emptyCmd, tailCmd, exportCmd} {
		c.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification (self-signed servers)")
	}
	tailCmd.Flags().IntVarP(&tailN, "lines", "n", 10, "Number of rows to show")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write CSV to file instead of stdout")
}

func newClient() (*client.Client, error) {
	var opts []client.Option
	if insecure {
		opts = append(opts, client.WithInsecureSkipVerify())
	}
	return client.New(serverURL, opts...)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// printEvents writes events as an aligned table.
func printEvents(out io.Writer, events []client.Event) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JUG\tSTATE\tDATETIME")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.JugName, e.State, e.DateTime)
	}
	return w.Flush()
}

// ── filled ───────────────────────────────────────────────────────────────────

var filledCmd = &cobra.Command{
	Use:   "filled",
	Short: "List jugs that are currently filled, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		events, err := c.ListFilled(ctx)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No jugs are filled.")
			return nil
		}
		return printEvents(cmd.OutOrStdout(), events)
	},
}

// ── list ─────────────────────────────────────────────────────────────────────

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every ledger event in storage order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		events, err := c.ListAll(ctx)
		if err != nil {
			return err
		}
		return printEvents(cmd.OutOrStdout(), events)
	},
}

// ── fill / empty ─────────────────────────────────────────────────────────────

var fillCmd = &cobra.Command{
	Use:   "fill <jug> [jug] ...",
	Short: "Mark one or more jugs as filled",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		n, err := c.Fill(ctx, args...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Filled %d jugs\n", n)
		return nil
	},
}

var emptyCmd = &cobra.Command{
	Use:   "empty <jug>",
	Short: "Mark a jug as emptied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		if err := c.Empty(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Emptied jug %s\n", strings.TrimSpace(args[0]))
		return nil
	},
}

// ── tail ─────────────────────────────────────────────────────────────────────

var tailN int

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the newest ledger rows, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		res, err := c.Tail(ctx, tailN)
		if err != nil {
			return err
		}
		if err := printEvents(cmd.OutOrStdout(), res.Lines); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d rows\n", res.RetrievedRows, res.TotalRows)
		return nil
	},
}

// ── export ───────────────────────────────────────────────────────────────────

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the raw ledger CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := cmdContext()
		defer cancel()

		raw, err := c.ExportCSV(ctx)
		if err != nil {
			return err
		}
		if exportOut == "" {
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		}
		if err := os.WriteFile(exportOut, raw, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(raw), exportOut)
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the jugs CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jugs %s\n", version)
	},
}
