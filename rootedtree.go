package generaxcore

import (
	"sort"

	"github.com/pkg/errors"
)

//RootedTree wraps a rooted binary tree and gives indexed access to its
//nodes. Leaves are numbered [0, L) in the order they appear in the
//newick string, internal nodes [L, N) in postorder. The numbering and
//the node set stay stable across root changes.
type RootedTree struct {
	root   *Node
	nodes  []*Node // indexed by NUM
	leaves []*Node
}

//NewRootedTree will index a parsed tree and check that it is binary
func NewRootedTree(root *Node) (*RootedTree, error) {
	t := &RootedTree{root: root}
	pre := root.PreorderArray()
	for _, n := range pre {
		if len(n.CHLD) != 0 && len(n.CHLD) != 2 {
			return nil, errors.Errorf("node %q has %d children: only rooted binary trees are supported", n.NAME, len(n.CHLD))
		}
	}
	num := 0
	for _, n := range pre {
		if n.IsTip() {
			n.NUM = num
			num++
			t.leaves = append(t.leaves, n)
		}
	}
	for _, n := range root.PostorderArray() {
		if !n.IsTip() {
			n.NUM = num
			num++
		}
	}
	t.nodes = make([]*Node, num)
	for _, n := range pre {
		t.nodes[n.NUM] = n
	}
	return t, nil
}

//GetRoot will return the root node
func (t *RootedTree) GetRoot() *Node {
	return t.root
}

//GetNode will return the node with the given stable index
func (t *RootedTree) GetNode(index int) *Node {
	return t.nodes[index]
}

//GetNodes will return all nodes, indexed by NUM
func (t *RootedTree) GetNodes() []*Node {
	return t.nodes
}

//GetPostOrderNodes will return the nodes in postorder under the
//current root
func (t *RootedTree) GetPostOrderNodes() []*Node {
	return t.root.PostorderArray()
}

//GetLeaves will return the leaf nodes
func (t *RootedTree) GetLeaves() []*Node {
	return t.leaves
}

//GetLeafNumber will return the number of leaves
func (t *RootedTree) GetLeafNumber() int {
	return len(t.leaves)
}

//GetInnerNodeNumber will return the number of internal nodes
func (t *RootedTree) GetInnerNodeNumber() int {
	return len(t.nodes) - len(t.leaves)
}

//GetNodeNumber will return the total number of nodes
func (t *RootedTree) GetNodeNumber() int {
	return len(t.nodes)
}

//EqualizeBranchLengths will set all branch lengths to a common constant
func (t *RootedTree) EqualizeBranchLengths() {
	for _, n := range t.nodes {
		n.LEN = 1.0
	}
}

//GetOrderedSpeciations will return all nodes ordered by their distance
//from the root: internal nodes first, most ancient first, then the
//leaves. Ties keep parents before their children.
func (t *RootedTree) GetOrderedSpeciations() []*Node {
	pre := t.root.PreorderArray()
	depths := make([]float64, len(t.nodes))
	for _, n := range pre {
		if n.PAR != nil {
			depths[n.NUM] = depths[n.PAR.NUM] + n.LEN
		}
	}
	inner := InternalNodeSlice(pre)
	// pre is in preorder, so a stable sort keeps parents first on ties
	sort.SliceStable(inner, func(i, j int) bool {
		return depths[inner[i].NUM] < depths[inner[j].NUM]
	})
	ordered := make([]*Node, 0, len(t.nodes))
	ordered = append(ordered, inner...)
	ordered = append(ordered, t.leaves...)
	return ordered
}

//NewickString will return the newick string of the tree
func (t *RootedTree) NewickString() string {
	return t.root.Newick(true) + ";"
}

//CanChangeRoot will return true if the root can be moved one step in
//the given direction, i.e. if the root child selected by the direction
//parity is an internal node
func (t *RootedTree) CanChangeRoot(direction int) bool {
	a := t.root.CHLD[1]
	if direction%2 == 1 {
		a = t.root.CHLD[0]
	}
	return len(a.CHLD) == 2
}

//ChangeRoot will move the root onto one of the four neighboring
//branches. The direction parity selects the root child A to descend
//into (odd means left), direction/2 selects which child of A the root
//lands above. The displaced sibling subtree is reattached in the
//vacated slot, and the kept grandchild takes the same side under the
//root as A had, so that same-parity moves keep descending away from
//the previous root position. The root node object itself is reused.
func (t *RootedTree) ChangeRoot(direction int) {
	left1 := direction%2 == 1
	left2 := direction >= 2
	root := t.root
	var a, b *Node
	if left1 {
		a, b = root.CHLD[0], root.CHLD[1]
	} else {
		a, b = root.CHLD[1], root.CHLD[0]
	}
	var c *Node
	if left2 {
		c = a.CHLD[0]
		a.CHLD[0] = b
	} else {
		c = a.CHLD[1]
		a.CHLD[1] = b
	}
	b.PAR = a
	if left1 {
		root.CHLD[0] = c
		root.CHLD[1] = a
	} else {
		root.CHLD[0] = a
		root.CHLD[1] = c
	}
	c.PAR = root
	a.PAR = root
}

//RevertChangeRoot will undo a previous ChangeRoot call with the same
//direction, restoring the exact left/right child placement
func (t *RootedTree) RevertChangeRoot(direction int) {
	t.ChangeRoot(direction ^ 1)
}
