package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/frontend"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/nonce"
)

// previewToken fills the token field of rendered previews.
const previewToken = "preview"

func newRenderCmd(a *app) *cobra.Command {
	var (
		formID      string
		step        string
		output      string
		locale      string
		action      string
		fromOpenAPI bool
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render one step of a form to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := formFromFile(cmd.Context(), args[0], formID, fromOpenAPI)
			if err != nil {
				return err
			}

			localizer, err := a.localizer()
			if err != nil {
				return err
			}
			opts := []frontend.Option{
				frontend.WithIssuer(nonce.Static(previewToken)),
				frontend.WithLocalizer(localizer),
				frontend.WithLogger(a.logger.WithName("frontend")),
			}
			if manifest := a.cfg.Theme.Manifest; manifest != "" {
				overrides, err := frontend.LoadThemeOverrides(manifest, a.cfg.Theme.Variant)
				if err != nil {
					return err
				}
				opts = append(opts, frontend.WithOverrides(overrides))
			}
			renderer, err := frontend.New(opts...)
			if err != nil {
				return err
			}

			req := frontend.Request{Form: form, Locale: locale, Action: action}
			if step != "" {
				if _, ok := form.Container(step); !ok {
					return fmt.Errorf("form %q has no step %q", form.ID, step)
				}
				req.Submission = &model.Submission{
					ID:          previewToken,
					FormID:      form.ID,
					ContainerID: step,
					Status:      model.StatusProgressing,
				}
			}
			out, err := renderer.Render(cmd.Context(), req)
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
			if _, err := io.WriteString(w, out.HTML); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", output)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&formID, "form", "", "form id when the file holds several")
	flags.StringVar(&step, "step", "", "container id to render (default: first)")
	flags.StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	flags.StringVar(&locale, "locale", "", "locale for labels")
	flags.StringVar(&action, "action", "", "URL the form posts to")
	flags.BoolVar(&fromOpenAPI, "openapi", false, "read the file as an OpenAPI document")
	return cmd
}
