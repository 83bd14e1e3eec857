package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewRegistry(s)
}

func TestCreateAndIsLinked(t *testing.T) {
	r := newTestRegistry(t)

	linked, err := r.IsLinked("c1", "r1")
	require.NoError(t, err)
	assert.False(t, linked)

	link, err := r.Create("c1", "r1")
	require.NoError(t, err)
	assert.Equal(t, models.LinkActive, link.Status)

	linked, err = r.IsLinked("c1", "r1")
	require.NoError(t, err)
	assert.True(t, linked)

	// Each direction of the pair is distinct.
	linked, err = r.IsLinked("r1", "c1")
	require.NoError(t, err)
	assert.False(t, linked)
}

func TestCreateRejectsDuplicateActiveLink(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Create("c1", "r1")
	require.NoError(t, err)

	_, err = r.Create("c1", "r1")
	assert.ErrorIs(t, err, ErrAlreadyLinked)
}

func TestDeactivate(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Create("c1", "r1")
	require.NoError(t, err)

	deactivated, err := r.Deactivate("c1", "r1")
	require.NoError(t, err)
	assert.True(t, deactivated)

	linked, err := r.IsLinked("c1", "r1")
	require.NoError(t, err)
	assert.False(t, linked)

	// No active link left: reports false without error.
	deactivated, err = r.Deactivate("c1", "r1")
	require.NoError(t, err)
	assert.False(t, deactivated)
}

func TestCreateReactivatesInactiveLinkInPlace(t *testing.T) {
	r := newTestRegistry(t)

	original, err := r.Create("c1", "r1")
	require.NoError(t, err)

	_, err = r.Deactivate("c1", "r1")
	require.NoError(t, err)

	reactivated, err := r.Create("c1", "r1")
	require.NoError(t, err)
	assert.Equal(t, original.ID, reactivated.ID)
	assert.Equal(t, models.LinkActive, reactivated.Status)
	require.NotNil(t, reactivated.UpdatedAt)

	all, err := r.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestActiveForRetailerAndCompany(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Create("c1", "r1")
	require.NoError(t, err)
	_, err = r.Create("c2", "r1")
	require.NoError(t, err)
	_, err = r.Create("c1", "r2")
	require.NoError(t, err)
	_, err = r.Deactivate("c2", "r1")
	require.NoError(t, err)

	forRetailer, err := r.ActiveForRetailer("r1")
	require.NoError(t, err)
	require.Len(t, forRetailer, 1)
	assert.Equal(t, "c1", forRetailer[0].CompanyID)

	forCompany, err := r.ActiveForCompany("c1")
	require.NoError(t, err)
	assert.Len(t, forCompany, 2)
}
