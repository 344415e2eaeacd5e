package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/console"
	"github.com/goliatone/go-formflow/pkg/flow"
)

type walkSummary struct {
	Submission string              `yaml:"submission"`
	Form       string              `yaml:"form"`
	Status     string              `yaml:"status"`
	Values     map[string][]string `yaml:"values"`
}

func newWalkCmd(a *app) *cobra.Command {
	var (
		formID      string
		locale      string
		owner       string
		fromOpenAPI bool
	)
	cmd := &cobra.Command{
		Use:   "walk <file>",
		Short: "Fill in a form step by step on the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			form, err := formFromFile(ctx, args[0], formID, fromOpenAPI)
			if err != nil {
				return err
			}
			submissions, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			issuer, err := a.issuer()
			if err != nil {
				return err
			}
			localizer, err := a.localizer()
			if err != nil {
				return err
			}
			processor, err := flow.New(submissions, issuer,
				flow.WithLocalizer(localizer),
				flow.WithLogger(a.logger.WithName("flow")),
			)
			if err != nil {
				return err
			}
			walker, err := console.New(processor, issuer,
				console.WithPromptDriver(console.NewSurveyDriver(cmd.OutOrStdout())),
				console.WithOwnerKey(owner),
				console.WithLocale(locale),
				console.WithLocalizer(localizer),
				console.WithLogger(a.logger.WithName("console")),
			)
			if err != nil {
				return err
			}

			sub, err := walker.Walk(ctx, form)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(walkSummary{
				Submission: sub.ID,
				Form:       sub.FormID,
				Status:     string(sub.Status),
				Values:     sub.Values,
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&formID, "form", "", "form id when the file holds several")
	flags.StringVar(&locale, "locale", "", "locale for labels and messages")
	flags.StringVar(&owner, "owner", "cli", "owner key stored with the submission")
	flags.BoolVar(&fromOpenAPI, "openapi", false, "read the file as an OpenAPI document")
	return cmd
}
