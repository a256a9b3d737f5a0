package generaxcore

import (
	"github.com/pkg/errors"
)

//DatedBackup is a snapshot of the ranks of a DatedTree, sufficient to
//restore both the ranks and the speciation order
type DatedBackup []int

//DatedTree wraps a RootedTree and handles the order of speciations.
//It keeps a total order over all nodes (the dating) that is always
//consistent with the parent-before-child partial order of the tree.
type DatedTree struct {
	fromBL bool
	tree   *RootedTree
	// all nodes, from the root to the most recent speciation followed by leaves
	orderedSpeciations []*Node
	// ranks for all nodes, parents always have a lower rank than their children
	ranks []int
}

//NewDatedTree will build the speciation order and ranks either from the
//tree topology (useBLs false, undated mode) or from the branch lengths
//(useBLs true, dated mode), then standardize the branch lengths
func NewDatedTree(tree *RootedTree, useBLs bool) *DatedTree {
	d := &DatedTree{
		fromBL: useBLs,
		tree:   tree,
		ranks:  make([]int, tree.GetNodeNumber()),
	}
	d.UpdateSpeciationOrderAndRanks()
	d.RescaleBranchLengths()
	return d
}

//IsDated will return true if the dating came from branch lengths.
//Only a dated tree supports rank moves, randomization and the
//relative-dating transfer predicate.
func (d *DatedTree) IsDated() bool {
	return d.fromBL
}

//GetRootedTree will return the underlying rooted tree
func (d *DatedTree) GetRootedTree() *RootedTree {
	return d.tree
}

//GetOrderedSpeciations will return all nodes ordered by rank
func (d *DatedTree) GetOrderedSpeciations() []*Node {
	return d.orderedSpeciations
}

//GetOrderedSpeciesRanks will return the rank of every node, indexed by NUM
func (d *DatedTree) GetOrderedSpeciesRanks() []int {
	return d.ranks
}

//GetRank will return the rank of a node
func (d *DatedTree) GetRank(n *Node) int {
	return d.ranks[n.NUM]
}

//GetBackup will return a copy of the current ranks
func (d *DatedTree) GetBackup() DatedBackup {
	return append(DatedBackup(nil), d.ranks...)
}

//UpdateSpeciationOrderAndRanks will rebuild the speciation order from
//the tree, in reverse postorder for an undated tree or by branch
//lengths for a dated one, and reassign the ranks accordingly
func (d *DatedTree) UpdateSpeciationOrderAndRanks() {
	if !d.fromBL { // order the speciations in reverse postorder
		nodes := d.tree.GetPostOrderNodes()
		d.orderedSpeciations = d.orderedSpeciations[:0]
		for i := len(nodes) - 1; i >= 0; i-- {
			d.orderedSpeciations = append(d.orderedSpeciations, nodes[i])
		}
	} else { // order the speciations according to branch lengths
		d.orderedSpeciations = d.tree.GetOrderedSpeciations()
	}
	for rank, node := range d.orderedSpeciations {
		d.ranks[node.NUM] = rank
	}
}

//RescaleBranchLengths will standardize the branch lengths, either to a
//common constant (undated) or from the ranks (dated). The root branch
//gets length 1 and is not counted in the tree height.
func (d *DatedTree) RescaleBranchLengths() {
	d.checkRanks()
	if !d.fromBL { // set all lengths to a standard value
		d.tree.EqualizeBranchLengths()
		return
	}
	treeHeight := 0.0
	for _, node := range d.orderedSpeciations {
		if node.PAR == nil || node.IsTip() { // the root or a leaf
			node.LEN = 1.0 // not included in treeHeight
			continue
		}
		node.LEN = float64(d.ranks[node.NUM]) - float64(d.ranks[node.PAR.NUM])
		treeHeight = float64(d.ranks[node.NUM])
	}
	treeHeight += 1.0 // account for the leaves
	for _, leaf := range d.tree.GetLeaves() {
		leaf.LEN = treeHeight - float64(d.ranks[leaf.PAR.NUM])
	}
}

//MoveUp will move the node with the given rank one rank closer to the
//root by swapping it with its predecessor. Returns false without
//mutation if the swap would break the dating.
func (d *DatedTree) MoveUp(rank int) bool {
	d.assertDated()
	if rank <= 0 {
		return false
	}
	// move the previous node one rank away from the root
	return d.MoveDown(rank - 1)
}

//MoveDown will swap the node with the given rank with its successor.
//The swap is refused if either node is a leaf or if the successor is a
//child of the node, which would break the parent-before-child order.
func (d *DatedTree) MoveDown(rank int) bool {
	d.assertDated()
	if rank < 0 || rank > len(d.orderedSpeciations)-2 {
		return false
	}
	n1 := d.orderedSpeciations[rank]
	n2 := d.orderedSpeciations[rank+1]
	// n1 has a lower rank than n2, we want to swap them
	if n1.IsTip() || n2.IsTip() || n2.PAR == n1 {
		return false
	}
	d.orderedSpeciations[rank+1] = n1
	d.orderedSpeciations[rank] = n2
	d.ranks[n1.NUM]++
	d.ranks[n2.NUM]--
	return true
}

//Restore will reset the ranks from a backup and rebuild the speciation
//order to match
func (d *DatedTree) Restore(backup DatedBackup) {
	copy(d.ranks, backup)
	speciations := append([]*Node(nil), d.orderedSpeciations...)
	for _, node := range speciations {
		d.orderedSpeciations[d.ranks[node.NUM]] = node
	}
}

//CanTransferUnderRelDated will return true if a horizontal gene
//transfer from the branch above species e to the branch above species
//d is feasible under the current relative dating, i.e. if the
//destination is strictly younger than the parent of the source
func (d *DatedTree) CanTransferUnderRelDated(e, dest int) bool {
	d.assertDated()
	if dest == e {
		return false
	}
	srcSpeciesNode := d.tree.GetNode(e)
	if srcSpeciesNode.PAR == nil {
		return true
	}
	return d.ranks[dest] > d.ranks[srcSpeciesNode.PAR.NUM]
}

//Randomize will draw a random dating consistent with the topology by
//repeatedly picking a random node from the frontier of nodes whose
//parents are already ranked. Leaves keep their tail positions.
func (d *DatedTree) Randomize() {
	d.assertDated()
	var toAdd []*Node
	toAdd = append(toAdd, d.tree.GetRoot())
	currentRank := 0
	for len(toAdd) > 0 {
		i := RandIntn(len(toAdd))
		node := toAdd[i]
		if !node.IsTip() {
			d.orderedSpeciations[currentRank] = node
			d.ranks[node.NUM] = currentRank
			currentRank++
			toAdd[i] = node.CHLD[0]
			toAdd = append(toAdd, node.CHLD[1])
		} else {
			toAdd[i] = toAdd[len(toAdd)-1]
			toAdd = toAdd[:len(toAdd)-1]
		}
	}
}

// TODO: Too high hash collision rate! Fix somehow before using!
// taken from https://stackoverflow.com/a/27952689
func hashCombine(lhs, rhs uint64) uint64 {
	lhs ^= rhs + 0x9e3779b9 + (lhs << 6) + (lhs >> 2)
	return lhs
}

//OrderingHash will return a hash value characterizing the current
//order of speciations. Informational only.
func (d *DatedTree) OrderingHash(startingHash uint64) uint64 {
	d.assertDated()
	hash := startingHash
	for _, rank := range d.ranks {
		hash = hashCombine(uint64(rank), hash)
	}
	return hash
}

//repairRanksAfterRootChange will rebuild the dating after a root
//change, which can leave the stored ranks violating the new
//parent-before-child order. The closest consistent dating is chosen:
//a stable topological sort that always places the ready internal node
//with the lowest previous rank next.
func (d *DatedTree) repairRanksAfterRootChange() {
	if !d.fromBL {
		d.UpdateSpeciationOrderAndRanks()
		return
	}
	oldRanks := append([]int(nil), d.ranks...)
	order := make([]*Node, 0, len(d.ranks))
	frontier := []*Node{d.tree.GetRoot()}
	for len(frontier) > 0 {
		best := 0
		for i, n := range frontier {
			if oldRanks[n.NUM] < oldRanks[frontier[best].NUM] {
				best = i
			}
		}
		node := frontier[best]
		frontier = append(frontier[:best], frontier[best+1:]...)
		order = append(order, node)
		for _, chld := range node.CHLD {
			if !chld.IsTip() {
				frontier = append(frontier, chld)
			}
		}
	}
	leaves := append([]*Node(nil), d.tree.GetLeaves()...)
	for i := 1; i < len(leaves); i++ { // keep the previous relative leaf order
		for j := i; j > 0 && oldRanks[leaves[j].NUM] < oldRanks[leaves[j-1].NUM]; j-- {
			leaves[j], leaves[j-1] = leaves[j-1], leaves[j]
		}
	}
	order = append(order, leaves...)
	d.orderedSpeciations = order
	for rank, node := range order {
		d.ranks[node.NUM] = rank
	}
}

func (d *DatedTree) assertDated() {
	if !d.fromBL {
		panic(errors.New("operation requires a dated species tree"))
	}
}

//checkRanks will verify that the ranks are consistent with the
//speciation order and with the tree topology
func (d *DatedTree) checkRanks() {
	for i := 0; i+1 < len(d.orderedSpeciations); i++ {
		n1 := d.orderedSpeciations[i]
		n2 := d.orderedSpeciations[i+1]
		if d.ranks[n1.NUM]+1 != d.ranks[n2.NUM] {
			panic(errors.Errorf("ranks inconsistent with the speciation order at rank %d", i))
		}
	}
	for _, node := range d.tree.GetNodes() {
		if node.PAR != nil && d.ranks[node.PAR.NUM] >= d.ranks[node.NUM] {
			panic(errors.Errorf("node %q is ranked before its parent", node.NAME))
		}
	}
}
