package dataset

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/procura/internal/core/domain"
)

//go:embed sedi.yaml
var defaultDataset []byte

//go:embed sedi.schema.json
var datasetSchema []byte

type datasetFile struct {
	Sedi []domain.JurisdictionRecord `yaml:"sedi"`
}

// Default builds the catalog from the embedded dataset.
func Default() (*Catalog, error) {
	return DecodeYAML(defaultDataset)
}

// LoadFile reads a YAML or XLSX dataset; an empty path selects the embedded one.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".xlsx":
		return ReadXLSX(bytes.NewReader(data))
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "load dataset", fmt.Errorf("unsupported extension %q", filepath.Ext(path)))
	}
}

func DecodeYAML(data []byte) (*Catalog, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode dataset", err)
	}
	if err := validateAgainstSchema(generic); err != nil {
		return nil, err
	}

	var file datasetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode dataset", err)
	}
	return NewCatalog(file.Sedi)
}

func validateAgainstSchema(doc any) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(datasetSchema))
	if err != nil {
		return fmt.Errorf("compile dataset schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate dataset", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return domain.WrapError(domain.ErrInvalidInput, "validate dataset", fmt.Errorf("%s", strings.Join(problems, "; ")))
}
