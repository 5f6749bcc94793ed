package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/procura/internal/core/domain"
)

func TestResolveCoincidence(t *testing.T) {
	r := NewJurisdictionResolver(newCatalogFake())

	res, err := r.Resolve("torino")
	require.NoError(t, err)
	assert.Equal(t, "commissione.torino@pec.example.it", res.ContactAddress)
	assert.Equal(t, "Torino", res.CompetentAuthority)
	assert.Equal(t, "PEC selezionata perché la sede coincide con la città indicata.", res.Reason)
	assert.Equal(t, "torino", res.Jurisdiction.ID)
}

func TestResolveDelegationNamesAuthority(t *testing.T) {
	r := NewJurisdictionResolver(newCatalogFake())

	res, err := r.Resolve("asti")
	require.NoError(t, err)
	assert.Equal(t, "PEC selezionata perché la sede indicata è di competenza della Commissione territoriale di Torino.", res.Reason)
}

func TestResolveIsRepeatable(t *testing.T) {
	r := NewJurisdictionResolver(newCatalogFake())

	first, err := r.Resolve("asti")
	require.NoError(t, err)
	second, err := r.Resolve("asti")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveBlankIDIsNotSelected(t *testing.T) {
	r := NewJurisdictionResolver(newCatalogFake())

	for _, id := range []string{"", " ", "\t"} {
		_, err := r.Resolve(id)
		var resErr *domain.ResolutionError
		require.True(t, errors.As(err, &resErr), "id %q", id)
		assert.True(t, errors.Is(err, domain.ErrJurisdictionNotSelected))
		assert.Equal(t, domain.MsgNoJurisdictionSelected, resErr.Message)
	}
}

func TestResolveUnknownIDIsNotFound(t *testing.T) {
	r := NewJurisdictionResolver(newCatalogFake())

	for _, id := range []string{"nonexistent-key", "Torino", " torino"} {
		_, err := r.Resolve(id)
		var resErr *domain.ResolutionError
		require.True(t, errors.As(err, &resErr), "id %q", id)
		assert.True(t, errors.Is(err, domain.ErrJurisdictionNotFound))
		assert.Equal(t, domain.MsgJurisdictionNotFound, resErr.Error())
	}
}

func TestExists(t *testing.T) {
	r := NewJurisdictionResolver(newCatalogFake())
	assert.True(t, r.Exists("asti"))
	assert.False(t, r.Exists("ASTI"))
}
