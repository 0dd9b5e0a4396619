package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/packlist/internal/config"
	"github.com/JonMunkholm/packlist/internal/core"
	"github.com/JonMunkholm/packlist/internal/logging"
	"github.com/JonMunkholm/packlist/internal/packing"
)

type rootOptions struct {
	format    string
	logLevel  string
	outputDir string
	cfg       *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "packlist",
		Short:         "Normalize packing lists and generate customs forms",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "json", "Report format: json or yaml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (default: LOG_LEVEL or info)")
	cmd.PersistentFlags().StringVar(&opts.outputDir, "output-dir", "", "Artifact directory (default: OUTPUT_DIR)")

	cmd.AddCommand(
		newParseCmd(opts),
		newPayloadCmd(opts),
		newRunCmd(opts),
		newReconcileCmd(opts),
	)
	return cmd
}

// setup loads configuration and points logs at stderr so reports on stdout
// stay machine readable.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	o.format = strings.ToLower(o.format)
	if o.format != "json" && o.format != "yaml" {
		return fmt.Errorf("invalid --format %q: want json or yaml", o.format)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}

	level := o.logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format))

	o.cfg = cfg
	return nil
}

// render writes v to w in the selected format.
func (o *rootOptions) render(w io.Writer, v any) error {
	if o.format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadItems reads items from a spreadsheet, or from a JSON array of items
// when the file ends in .json.
func (o *rootOptions) loadItems(path string) ([]packing.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var items []packing.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidSubmission, err)
		}
		return core.AssignIDs(items), nil
	}

	res, err := o.parse(path, data)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (o *rootOptions) parse(path string, data []byte) (*packing.Result, error) {
	return packing.NormalizeFile(filepath.Base(path), data, packing.Options{
		HeaderSearchRows: o.cfg.Upload.HeaderSearchRows,
	})
}
