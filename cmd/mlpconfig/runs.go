package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/hyperparams"
	"github.com/danielpatrickdp/mlp-train/go-config/internal/provenance"
	"github.com/danielpatrickdp/mlp-train/go-config/internal/snapshot"
	"github.com/spf13/cobra"
)

var errDrift = errors.New("configuration drifted")

// #region record
func newRecordCmd(opts *options) *cobra.Command {
	var model, note string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the current configuration for a training run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := provenance.NewStore(opts.dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.RecordRun(model, snapshot.Take(hyperparams.Default()), note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", rec.RunID, rec.Fingerprint)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model group the run trains (mlp, cruise_mlp)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note stored with the run")
	if err := cmd.MarkFlagRequired("model"); err != nil {
		panic(err)
	}
	return cmd
}

// #endregion record

// #region runs
type runRow struct {
	RunID       string `json:"run_id"`
	Model       string `json:"model"`
	Fingerprint string `json:"fingerprint"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func newRunsCmd(opts *options) *cobra.Command {
	var last int
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := provenance.NewStore(opts.dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(last)
			if err != nil {
				return err
			}

			rows := make([]runRow, len(runs))
			for i, r := range runs {
				rows[i] = runRow{
					RunID:       r.RunID,
					Model:       r.Model,
					Fingerprint: r.Fingerprint,
					Note:        r.Note,
					CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
				}
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no runs found")
				return nil
			}
			fmt.Fprintf(w, "%-36s  %-10s  %-12s  %-20s  %s\n", "Run", "Model", "Fingerprint", "Time", "Note")
			for _, r := range rows {
				fmt.Fprintf(w, "%-36s  %-10s  %-12.12s  %-20s  %s\n", r.RunID, r.Model, r.Fingerprint, r.CreatedAt, r.Note)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

// #endregion runs

// #region verify
func newVerifyCmd(opts *options) *cobra.Command {
	var snapPath string
	cmd := &cobra.Command{
		Use:   "verify RUN_ID",
		Short: "Compare a recorded run with the current table or a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current := snapshot.Take(hyperparams.Default())
			if snapPath != "" {
				loaded, err := snapshot.Load(snapPath)
				if err != nil {
					return err
				}
				current = loaded
			}

			store, err := provenance.NewStore(opts.dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			v, err := store.VerifyRun(args[0], current)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if v.Match {
				fmt.Fprintf(w, "run %s matches (fingerprint %s)\n", v.RunID, v.Fingerprint)
				return nil
			}
			for _, c := range v.Changes {
				fmt.Fprintln(w, c)
			}
			return fmt.Errorf("%w: run %s has %d changes", errDrift, v.RunID, len(v.Changes))
		},
	}
	cmd.Flags().StringVar(&snapPath, "snapshot", "", "compare against this snapshot file instead of the built-in table")
	return cmd
}

// #endregion verify
