package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/hyperparams"
	"github.com/danielpatrickdp/mlp-train/go-config/internal/snapshot"
	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("configuration check failed")

// #region show
func newShowCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print every parameter and label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl := hyperparams.Default()
			if jsonOut {
				return snapshot.Take(tbl).WriteJSON(cmd.OutOrStdout())
			}
			printTable(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

func printTable(w io.Writer, tbl *hyperparams.Table) {
	fmt.Fprintf(w, "%-12s  %-30s  %s\n", "Group", "Parameter", "Value")
	fmt.Fprintf(w, "%-12s+-%-30s+-%s\n", "------------", "------------------------------", "--------")
	for _, g := range tbl.Groups() {
		for _, key := range tbl.Keys(g) {
			v, _ := tbl.Parameter(g, key)
			fmt.Fprintf(w, "%-12s  %-30s  %s\n", g, key, v)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-12s  %s\n", "Label", "Code")
	fmt.Fprintf(w, "%-12s+-%s\n", "------------", "----")
	for _, name := range tbl.LabelNames() {
		code, _ := tbl.Label(name)
		fmt.Fprintf(w, "%-12s  %d\n", name, code)
	}
}

// #endregion show

// #region lookups
func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get GROUP KEY",
		Short: "Print a single parameter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := hyperparams.GetParameter(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newLabelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "label NAME",
		Short: "Print a label code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := hyperparams.GetLabel(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}

// #endregion lookups

// #region check
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify parameter consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := hyperparams.Default().Check()
			w := cmd.OutOrStdout()
			for _, c := range report.Checks {
				status := "ok"
				if !c.Pass {
					status = "FAIL"
				}
				fmt.Fprintf(w, "%-4s  %-38s  %s\n", status, c.Name, c.Detail)
			}
			if !report.Passed {
				return fmt.Errorf("%w: %s", errCheckFailed, report.Reason)
			}
			return nil
		},
	}
}

// #endregion check
