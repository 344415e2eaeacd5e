package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/charts"
)

func newChartCmd(a *app) *cobra.Command {
	var (
		creatorName string
		title       string
		output      string
	)
	cmd := &cobra.Command{
		Use:   "chart <dataset.yaml>",
		Short: "Render a bar chart from an ordered list of label/count entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var dataset charts.Dataset
			if err := yaml.Unmarshal(data, &dataset); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			registry, err := a.chartRegistry()
			if err != nil {
				return err
			}
			if creatorName == "" {
				creatorName = a.cfg.Charts.DefaultCreator
			}
			creator, err := registry.Get(creatorName)
			if err != nil {
				return fmt.Errorf("%w (available: %v)", err, registry.List())
			}
			widget, err := creator.Bars(title, dataset)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			_, err = io.WriteString(w, widget.HTML)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&creatorName, "creator", "", "chart creator (default: charts.default_creator)")
	flags.StringVar(&title, "title", "", "chart title")
	flags.StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}
