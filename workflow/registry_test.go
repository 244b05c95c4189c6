package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCompanyScoping(t *testing.T) {
	r := NewRegistry()

	s, err := r.Open("company-1", "org-1", []BillToPay{bill("b1", "UGX", "100")})
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	got, err := r.Get(s.ID, "company-1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	// another company sees not-found, never forbidden
	_, err = r.Get(s.ID, "company-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	err = r.Close(s.ID, "company-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, r.Alive(s.ID))
}

func TestRegistryCloseDiscardsSession(t *testing.T) {
	r := NewRegistry()
	s, err := r.Open("company-1", "org-1", []BillToPay{bill("b1", "UGX", "100")})
	require.NoError(t, err)

	require.NoError(t, s.SelectSource(mobileSource()))
	require.NoError(t, s.SetAmount("b1", "40"))

	require.NoError(t, r.Close(s.ID, "company-1"))

	assert.False(t, r.Alive(s.ID))
	_, err = r.Get(s.ID, "company-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// the session object itself was reset on the way out
	assert.Equal(t, StepSource, s.Step)
	assert.Nil(t, s.Source)
	assert.Empty(t, s.Amounts)
}

func TestRegistryOpenIssuesDistinctIds(t *testing.T) {
	r := NewRegistry()
	bills := []BillToPay{bill("b1", "UGX", "100")}

	a, err := r.Open("company-1", "org-1", bills)
	require.NoError(t, err)
	b, err := r.Open("company-1", "org-1", bills)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, r.Alive(a.ID))
	assert.True(t, r.Alive(b.ID))
}
