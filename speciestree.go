package generaxcore

import (
	"hash/fnv"
	"strconv"
)

//Listener is notified whenever the species tree dates or topology
//change. Listeners are borrowed, never owned, and must tolerate
//re-entrant calls from the same goroutine.
type Listener interface {
	OnSpeciesDatesChange()
	OnSpeciesTreeChange(nodesToInvalidate map[*Node]bool)
}

//SpeciesTree owns a rooted tree and its dating, and fans change
//notifications out to registered listeners. It is never copied after
//construction.
type SpeciesTree struct {
	tree      *RootedTree
	datedTree *DatedTree
	listeners []Listener
}

//NewSpeciesTree will build a species tree from a newick string. With
//useBLs the initial dating is derived from the branch lengths,
//otherwise purely from the topology.
func NewSpeciesTree(nwk string, useBLs bool) (*SpeciesTree, error) {
	root, err := ReadTree(nwk)
	if err != nil {
		return nil, err
	}
	tree, err := NewRootedTree(root)
	if err != nil {
		return nil, err
	}
	st := &SpeciesTree{tree: tree}
	st.labelInnerNodes()
	st.datedTree = NewDatedTree(tree, useBLs)
	return st, nil
}

//NewSpeciesTreeFromLabels will build an undated species tree with a
//random topology over the given leaf labels
func NewSpeciesTreeFromLabels(labels []string) (*SpeciesTree, error) {
	var subtrees []*Node
	for _, label := range labels {
		subtrees = append(subtrees, &Node{NAME: label})
	}
	for len(subtrees) > 1 {
		i := RandIntn(len(subtrees))
		a := subtrees[i]
		subtrees[i] = subtrees[len(subtrees)-1]
		subtrees = subtrees[:len(subtrees)-1]
		j := RandIntn(len(subtrees))
		b := subtrees[j]
		join := &Node{}
		join.AddChild(a)
		join.AddChild(b)
		subtrees[j] = join
	}
	tree, err := NewRootedTree(subtrees[0])
	if err != nil {
		return nil, err
	}
	st := &SpeciesTree{tree: tree}
	st.labelInnerNodes()
	st.datedTree = NewDatedTree(tree, false)
	return st, nil
}

// every branch needs a label for the transfer-frequency lookups
func (st *SpeciesTree) labelInnerNodes() {
	for _, n := range st.tree.GetNodes() {
		if !n.IsTip() && n.NAME == "" {
			n.NAME = "node_" + strconv.Itoa(n.NUM)
		}
	}
}

//GetTree will return the underlying rooted tree
func (st *SpeciesTree) GetTree() *RootedTree {
	return st.tree
}

//GetDatedTree will return the dating of the tree
func (st *SpeciesTree) GetDatedTree() *DatedTree {
	return st.datedTree
}

//GetRoot will return the root node
func (st *SpeciesTree) GetRoot() *Node {
	return st.tree.GetRoot()
}

//GetNode will return the node with the given stable index
func (st *SpeciesTree) GetNode(index int) *Node {
	return st.tree.GetNode(index)
}

//GetLabelToID will return the mapping from node labels to stable
//node indices
func (st *SpeciesTree) GetLabelToID() map[string]int {
	labelToID := make(map[string]int, st.tree.GetNodeNumber())
	for _, n := range st.tree.GetNodes() {
		if n.NAME != "" {
			labelToID[n.NAME] = n.NUM
		}
	}
	return labelToID
}

func (st *SpeciesTree) String() string {
	return st.tree.NewickString()
}

//Hash will return a hash of the current tree topology and dating,
//for logging and tests
func (st *SpeciesTree) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(st.tree.NewickString()))
	return h.Sum64()
}

//AddListener will register a listener. Registration is idempotent.
func (st *SpeciesTree) AddListener(l Listener) {
	for _, registered := range st.listeners {
		if registered == l {
			return
		}
	}
	st.listeners = append(st.listeners, l)
}

//RemoveListener will deregister a listener by identity
func (st *SpeciesTree) RemoveListener(l Listener) {
	for i, registered := range st.listeners {
		if registered == l {
			st.listeners = append(st.listeners[:i], st.listeners[i+1:]...)
			return
		}
	}
}

//OnSpeciesDatesChange should be called every time after changing the
//tree node dates
func (st *SpeciesTree) OnSpeciesDatesChange() {
	for _, l := range st.listeners {
		l.OnSpeciesDatesChange()
	}
}

//OnSpeciesTreeChange should be called every time after changing the
//tree topology
func (st *SpeciesTree) OnSpeciesTreeChange(nodesToInvalidate map[*Node]bool) {
	for _, l := range st.listeners {
		l.OnSpeciesTreeChange(nodesToInvalidate)
	}
}

//RestoreDates will reset the dating of a species tree from a backup
//and notify the listeners
func RestoreDates(speciesTree *SpeciesTree, backup DatedBackup) {
	speciesTree.GetDatedTree().Restore(backup)
	speciesTree.OnSpeciesDatesChange()
}

//CanChangeRoot will return true if the root can be moved one step in
//the given direction
func CanChangeRoot(speciesTree *SpeciesTree, direction int) bool {
	return speciesTree.GetTree().CanChangeRoot(direction)
}

//ChangeRoot will move the root to the neighboring branch described by
//direction, where direction is in [0:4[. The dating is repaired to the
//closest order consistent with the new topology and the listeners are
//notified of the topology change.
func ChangeRoot(speciesTree *SpeciesTree, direction int) {
	speciesTree.GetTree().ChangeRoot(direction)
	speciesTree.GetDatedTree().repairRanksAfterRootChange()
	speciesTree.OnSpeciesTreeChange(nil)
}

//RevertChangeRoot will undo a previous ChangeRoot call with the same
//direction
func RevertChangeRoot(speciesTree *SpeciesTree, direction int) {
	ChangeRoot(speciesTree, direction^1)
}
