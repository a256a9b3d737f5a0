package generaxcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type countingListener struct {
	dates int
	topo  int
}

func (l *countingListener) OnSpeciesDatesChange() { l.dates++ }

func (l *countingListener) OnSpeciesTreeChange(nodesToInvalidate map[*Node]bool) { l.topo++ }

func TestLabelInnerNodes(t *testing.T) {
	st := mustSpeciesTree(t, "((A:1,B:1):1,(C:1,D:1):1):1;", true)
	labelToID := st.GetLabelToID()
	// every unlabeled internal node got a synthetic label
	require.Len(t, labelToID, 7)
	for _, name := range []string{"A", "B", "C", "D", "node_4", "node_5", "node_6"} {
		id, ok := labelToID[name]
		require.True(t, ok, "label %s", name)
		require.Equal(t, name, st.GetNode(id).NAME)
	}
	// explicit labels are kept
	st = mustSpeciesTree(t, quartetNewick, true)
	require.Contains(t, st.GetLabelToID(), "L")
	require.Contains(t, st.GetLabelToID(), "root")
}

func TestListeners(t *testing.T) {
	st := mustSpeciesTree(t, quartetNewick, true)
	first := &countingListener{}
	second := &countingListener{}
	st.AddListener(first)
	st.AddListener(first) // idempotent
	st.AddListener(second)

	st.OnSpeciesDatesChange()
	require.Equal(t, 1, first.dates)
	require.Equal(t, 1, second.dates)

	st.RemoveListener(first)
	st.OnSpeciesDatesChange()
	require.Equal(t, 1, first.dates)
	require.Equal(t, 2, second.dates)

	// removing an unregistered listener is a no-op
	st.RemoveListener(first)
	st.OnSpeciesTreeChange(nil)
	require.Equal(t, 0, first.topo)
	require.Equal(t, 1, second.topo)
}

func TestListenersFireOnTreeOperators(t *testing.T) {
	st := mustSpeciesTree(t, quartetNewick, true)
	listener := &countingListener{}
	st.AddListener(listener)

	backup := st.GetDatedTree().GetBackup()
	RestoreDates(st, backup)
	require.Equal(t, 1, listener.dates)
	require.Equal(t, 0, listener.topo)

	require.True(t, CanChangeRoot(st, 1))
	ChangeRoot(st, 1)
	require.Equal(t, 1, listener.topo)
	RevertChangeRoot(st, 1)
	require.Equal(t, 2, listener.topo)
}

func TestNewSpeciesTreeFromLabels(t *testing.T) {
	SeedRNG(13)
	labels := []string{"A", "B", "C", "D", "E"}
	st, err := NewSpeciesTreeFromLabels(labels)
	require.NoError(t, err)
	tree := st.GetTree()
	require.Equal(t, 5, tree.GetLeafNumber())
	require.Equal(t, 4, tree.GetInnerNodeNumber())
	require.Equal(t, labels, leafSet(st.GetRoot()))
	require.False(t, st.GetDatedTree().IsDated())
	for _, n := range tree.GetNodes() {
		require.Equal(t, 1.0, n.LEN)
		if !n.IsTip() {
			require.Len(t, n.CHLD, 2)
			require.NotEmpty(t, n.NAME)
		}
	}
}

func TestSpeciesTreeHash(t *testing.T) {
	a := mustSpeciesTree(t, quartetNewick, true)
	b := mustSpeciesTree(t, quartetNewick, true)
	require.Equal(t, a.Hash(), b.Hash())
	require.Equal(t, a.String(), b.String())

	c := mustSpeciesTree(t, "((A:1,C:1)L:1,(B:1,D:1)R:1)root:1;", true)
	require.NotEqual(t, a.Hash(), c.Hash())
}
