package dataset

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/procura/internal/core/domain"
)

//go:embed rappresentante.yaml
var defaultProfile []byte

func DefaultProfile() (domain.RepresentativeProfile, error) {
	return DecodeProfile(defaultProfile)
}

// LoadProfile reads a representative profile; an empty path selects the embedded one.
func LoadProfile(path string) (domain.RepresentativeProfile, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultProfile()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RepresentativeProfile{}, fmt.Errorf("read profile: %w", err)
	}
	return DecodeProfile(data)
}

func DecodeProfile(data []byte) (domain.RepresentativeProfile, error) {
	var profile domain.RepresentativeProfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&profile); err != nil {
		return domain.RepresentativeProfile{}, domain.WrapError(domain.ErrInvalidInput, "decode profile", err)
	}
	if err := profile.Validate(); err != nil {
		return domain.RepresentativeProfile{}, err
	}
	return profile, nil
}
