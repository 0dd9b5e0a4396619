package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/packlist/internal/core"
	"github.com/JonMunkholm/packlist/internal/generate"
	"github.com/JonMunkholm/packlist/internal/logging"
	"github.com/JonMunkholm/packlist/internal/reconcile"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Normalize a packing list and print the items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := opts.parse(args[0], data)
			if err != nil {
				return err
			}
			logging.FromContext(cmd.Context()).Info("packing list normalized",
				"items", len(res.Items), "dropped", res.Stats.DroppedTotal())
			return opts.render(cmd.OutOrStdout(), res)
		},
	}
}

func newPayloadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "payload FILE",
		Short: "Print the generator payload for a packing list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := opts.loadItems(args[0])
			if err != nil {
				return err
			}
			data, err := generate.MarshalPayload(generate.BuildPayload(items, generate.DefaultsFromConfig(opts.cfg)))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}
}

// runReport is what the run command prints.
type runReport struct {
	SubmissionID string                 `json:"submissionId" yaml:"submissionId"`
	Status       core.SubmissionStatus  `json:"status" yaml:"status"`
	ExitCode     int                    `json:"exitCode" yaml:"exitCode"`
	Legacy       bool                   `json:"legacy,omitempty" yaml:"legacy,omitempty"`
	Entries      []reconcile.Entry      `json:"entries" yaml:"entries"`
	Unattributed []reconcile.Artifact   `json:"unattributed,omitempty" yaml:"unattributed,omitempty"`
	Audit        []reconcile.AuditEntry `json:"audit,omitempty" yaml:"audit,omitempty"`
	Error        string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE",
		Short: "Generate forms for a packing list and reconcile the output",
		Long: "Normalizes FILE (a spreadsheet, or a JSON array of items), runs the\n" +
			"configured generator once and attributes the artifacts it produced.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := opts.loadItems(args[0])
			if err != nil {
				return err
			}

			svc := core.NewService(opts.cfg, nil, nil)
			sub, err := svc.Submit(cmd.Context(), items)
			if sub.ID == "" {
				return err
			}

			report := runReport{
				SubmissionID: sub.ID,
				Status:       sub.Status,
				ExitCode:     sub.Outcome.ExitCode,
				Legacy:       sub.Outcome.Legacy,
				Entries:      sub.Entries,
				Error:        sub.Error,
			}
			if sub.Report != nil {
				report.Unattributed = sub.Report.Unattributed
				report.Audit = sub.Report.Audit
			}
			if rerr := opts.render(cmd.OutOrStdout(), report); rerr != nil {
				return errors.Join(err, rerr)
			}
			return err
		},
	}
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var (
		itemsPath  string
		stdoutPath string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Attribute artifacts already in the output directory to items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := opts.loadItems(itemsPath)
			if err != nil {
				return err
			}

			var stdout string
			if stdoutPath != "" {
				data, err := os.ReadFile(stdoutPath)
				if err != nil {
					return err
				}
				stdout = string(data)
			}

			report, err := reconcile.NewMatcher(opts.cfg).Match(cmd.Context(), items, stdout)
			if report == nil {
				return err
			}
			if rerr := opts.render(cmd.OutOrStdout(), report); rerr != nil {
				return errors.Join(err, rerr)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&itemsPath, "items", "", "Packing list or JSON items file (required)")
	cmd.Flags().StringVar(&stdoutPath, "stdout", "", "Saved generator stdout to parse for artifact names")
	_ = cmd.MarkFlagRequired("items")

	return cmd
}
