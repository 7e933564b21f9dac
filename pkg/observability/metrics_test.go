package observability_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_EditorHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	ed := lattice.New(domain.VariantPage, lattice.WithHooks(m.Hooks("doc-1")))
	_, err := ed.Insert(0, domain.Node{ID: "box", Kind: domain.KindContainer}, "")
	require.NoError(t, err)
	_, err = ed.Insert(0, domain.Node{ID: "a", Kind: domain.KindButton}, "box")
	require.NoError(t, err)
	_, err = ed.Insert(0, domain.Node{ID: "hero", Kind: domain.KindSection}, "box")
	require.ErrorIs(t, err, domain.ErrNestingForbidden)
	_, err = ed.Move("a", "ghost", false)
	require.ErrorIs(t, err, domain.ErrMoveRolledBack)
	_, err = ed.Remove("ghost")
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("insert", "committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("insert", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("move", "rolled_back")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("remove", "noop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rollbacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Nodes.WithLabelValues("doc-1")))

	expected := `
# HELP lattice_move_rollbacks_total Moves undone because the post-move integrity check failed.
# TYPE lattice_move_rollbacks_total counter
lattice_move_rollbacks_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lattice_move_rollbacks_total"))
}

func TestMetrics_ThroughSession(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	manager := session.NewManager(
		memory.NewStore(domain.NewDocument("landing", domain.VariantPage)),
		session.WithDocumentHooks(m.Hooks),
	)
	_, err := manager.Edit(context.Background(), "landing", func(ed *lattice.Editor) error {
		_, err := ed.Insert(0, domain.Node{ID: "a", Kind: domain.KindDivider}, "")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Nodes.WithLabelValues("landing")))
	// One series for the load on open, one for the insert.
	assert.Equal(t, 2, testutil.CollectAndCount(m.Changes))

	m.Forget("landing")
	assert.Equal(t, 0, testutil.CollectAndCount(m.Nodes))
}
