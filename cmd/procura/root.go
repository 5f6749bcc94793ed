package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kirillkom/procura/internal/adapters/tui"
	"github.com/kirillkom/procura/internal/bootstrap"
	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/infrastructure/dataset"
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type appFactory func(ctx context.Context) (*bootstrap.App, error)

// cli holds the state shared by every subcommand of one invocation.
type cli struct {
	ctx     context.Context
	io      streams
	factory appFactory
	app     *bootstrap.App

	input     domain.ApplicantInput
	inputFile string
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, s streams, factory appFactory) int {
	c := &cli{ctx: ctx, io: s, factory: factory}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.err)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		c.app.Close()
	}
	if err != nil {
		printError(s.err, err)
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "procura",
		Short:         "Procura alle liti e PEC per le Commissioni territoriali",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		c.sediCmd(),
		c.resolveCmd(),
		c.validateCmd(),
		c.emailCmd(),
		c.renderCmd(),
		c.generateCmd(),
		c.tuiCmd(),
	)
	return root
}

func (c *cli) bootstrap() (*bootstrap.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := c.factory(c.ctx)
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

func (c *cli) sediCmd() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "sedi",
		Short: "Elenca le sedi raggruppate per regione",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.bootstrap()
			if err != nil {
				return err
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("REGIONE", "ID", "SEDE", "COMMISSIONE", "PEC")
			for _, g := range app.Pipeline.ListJurisdictions() {
				if region != "" && !strings.EqualFold(g.Region, region) {
					continue
				}
				for _, j := range g.Jurisdictions {
					t.Row(g.Region, j.ID, j.DisplayName, j.CompetentAuthority, j.ContactAddress)
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return err
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "mostra solo la regione indicata")

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Esporta le sedi in un file xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.bootstrap()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := dataset.WriteXLSX(&buf, app.Pipeline.ListJurisdictions()); err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Sedi esportate in %s\n", out)
			return err
		},
	}
	export.Flags().StringVar(&out, "out", "sedi.xlsx", "file di destinazione")
	cmd.AddCommand(export)
	return cmd
}

func (c *cli) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mostra PEC e Commissione competente per una sede",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.bootstrap()
			if err != nil {
				return err
			}
			res, err := app.Pipeline.Resolve(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Sede: %s (%s)\n", res.Jurisdiction.DisplayName, res.Jurisdiction.Region)
			fmt.Fprintf(w, "Commissione: %s\n", res.CompetentAuthority)
			fmt.Fprintf(w, "PEC: %s\n", res.ContactAddress)
			_, err = fmt.Fprintln(w, res.Reason)
			return err
		},
	}
}

func (c *cli) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Valida i dati del richiedente e stampa il record normalizzato",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, raw, err := c.applicant(cmd)
			if err != nil {
				return err
			}
			rec, err := app.Pipeline.Validate(raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	c.applicantFlags(cmd)
	return cmd
}

func (c *cli) emailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Compone oggetto e testo della PEC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, raw, err := c.applicant(cmd)
			if err != nil {
				return err
			}
			outcome, err := app.Pipeline.Email(cmd.Context(), raw)
			if err != nil {
				return err
			}
			printEmail(cmd.OutOrStdout(), outcome)
			return nil
		},
	}
	c.applicantFlags(cmd)
	return cmd
}

func (c *cli) renderCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Genera solo la procura in PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, raw, err := c.applicant(cmd)
			if err != nil {
				return err
			}
			outcome, err := app.Pipeline.RenderOnly(cmd.Context(), raw)
			if err != nil {
				return err
			}
			doc := outcome.Document
			if out != "" {
				if err := os.WriteFile(out, doc.Content, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "PDF salvato in %s\n", out)
				return err
			}
			path, err := c.save(cmd.Context(), app, doc)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "PDF salvato in %s\n", path)
			return err
		},
	}
	c.applicantFlags(cmd)
	cmd.Flags().StringVar(&out, "out", "", "percorso del PDF (predefinito: OUTPUT_DIR/<nome file>)")
	return cmd
}

func (c *cli) generateCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Risolve la sede, compone la PEC e genera la procura",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, raw, err := c.applicant(cmd)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := c.redirectStorage(app, outDir); err != nil {
					return err
				}
			}
			outcome, err := app.Pipeline.GenerateAll(cmd.Context(), raw)
			if outcome != nil && outcome.Email != nil {
				printEmail(cmd.OutOrStdout(), outcome)
			}
			if err != nil {
				return err
			}
			path, err := c.save(cmd.Context(), app, outcome.Document)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nPDF salvato in %s\n", path)
			return err
		},
	}
	c.applicantFlags(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", "", "cartella di destinazione (predefinita: OUTPUT_DIR)")
	return cmd
}

func (c *cli) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Apre il modulo interattivo nel terminale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.bootstrap()
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), app.Pipeline, app.Storage, app.Logger.Named("tui"))
		},
	}
}

func printEmail(w io.Writer, outcome *domain.Outcome) {
	if outcome.Resolution != nil {
		fmt.Fprintf(w, "A: %s\n", outcome.Resolution.ContactAddress)
	}
	fmt.Fprintf(w, "Oggetto: %s\n\n%s\n", outcome.Email.Subject, outcome.Email.Body)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError writes the user-facing form of err: one "field: message" line
// per invalid field, or a single line otherwise.
func printError(w io.Writer, err error) {
	var (
		validationErr *domain.ValidationError
		resolutionErr *domain.ResolutionError
		renderErr     *domain.RenderError
	)
	switch {
	case errors.As(err, &validationErr):
		for _, key := range validationErr.Keys() {
			fmt.Fprintf(w, "%s: %s\n", key, validationErr.Fields[key])
		}
	case errors.As(err, &resolutionErr):
		fmt.Fprintln(w, resolutionErr.Message)
	case errors.As(err, &renderErr):
		fmt.Fprintf(w, "%s (%v)\n", renderErr.Message(), renderErr.Err)
	default:
		fmt.Fprintf(w, "errore: %v\n", err)
	}
}
