package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/procura/internal/bootstrap"
	"github.com/kirillkom/procura/internal/core/domain"
	"github.com/kirillkom/procura/internal/infrastructure/storage/localfs"
)

type applicantFlag struct {
	name  string
	usage string
	dst   func(*domain.ApplicantInput) *string
}

var applicantFlagSet = []applicantFlag{
	{"nome", "nome del richiedente", func(in *domain.ApplicantInput) *string { return &in.FirstName }},
	{"cognome", "cognome del richiedente", func(in *domain.ApplicantInput) *string { return &in.LastName }},
	{"data-nascita", "data di nascita (AAAA-MM-GG)", func(in *domain.ApplicantInput) *string { return &in.BirthDate }},
	{"luogo-nascita", "luogo di nascita", func(in *domain.ApplicantInput) *string { return &in.BirthPlace }},
	{"codice-fiscale", "codice fiscale", func(in *domain.ApplicantInput) *string { return &in.FiscalCode }},
	{"vestanet", "numero VESTANET (facoltativo)", func(in *domain.ApplicantInput) *string { return &in.CaseReference }},
	{"sede", "identificativo della sede", func(in *domain.ApplicantInput) *string { return &in.JurisdictionID }},
	{"tipo", "tipo di richiesta: asilo o accesso", func(in *domain.ApplicantInput) *string { return &in.RequestType }},
}

func (c *cli) applicantFlags(cmd *cobra.Command) {
	for _, f := range applicantFlagSet {
		cmd.Flags().StringVar(f.dst(&c.input), f.name, "", f.usage)
	}
	cmd.Flags().StringVar(&c.inputFile, "input", "", "file JSON con i dati del richiedente, - per stdin")
}

// applicant merges --input with any flag set explicitly on the command line;
// flags win.
func (c *cli) applicant(cmd *cobra.Command) (*bootstrap.App, domain.ApplicantInput, error) {
	raw := c.input
	if c.inputFile != "" {
		fromFile, err := readApplicant(cmd.InOrStdin(), c.inputFile)
		if err != nil {
			return nil, domain.ApplicantInput{}, err
		}
		for _, f := range applicantFlagSet {
			if !cmd.Flags().Changed(f.name) {
				*f.dst(&raw) = *f.dst(&fromFile)
			}
		}
	}

	app, err := c.bootstrap()
	if err != nil {
		return nil, domain.ApplicantInput{}, err
	}
	return app, raw, nil
}

func readApplicant(stdin io.Reader, path string) (domain.ApplicantInput, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.ApplicantInput{}, fmt.Errorf("read input: %w", err)
	}

	var in domain.ApplicantInput
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return domain.ApplicantInput{}, domain.WrapError(domain.ErrInvalidInput, "decode input", err)
	}
	return in, nil
}

func (c *cli) redirectStorage(app *bootstrap.App, dir string) error {
	storage, err := localfs.New(dir)
	if err != nil {
		return fmt.Errorf("init output dir: %w", err)
	}
	app.Storage = storage
	return nil
}

func (c *cli) save(ctx context.Context, app *bootstrap.App, doc *domain.RenderedDocument) (string, error) {
	if err := app.Storage.Save(ctx, doc.Filename, bytes.NewReader(doc.Content)); err != nil {
		return "", fmt.Errorf("save %s: %w", doc.Filename, err)
	}
	return app.Storage.Path(doc.Filename)
}
