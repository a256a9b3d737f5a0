package generaxcore

import (
	"strconv"
)

//Node is a single node in a rooted binary species tree. Internal nodes
//carry exactly two children, CHLD[0] being the left one. NUM is a stable
//index in [0, N) that survives rerooting.
type Node struct {
	NUM  int
	NAME string
	LEN  float64
	PAR  *Node
	CHLD []*Node
}

//IsTip will return true if the node is a leaf
func (n *Node) IsTip() bool {
	return len(n.CHLD) == 0
}

//IsRoot will return true if the node has no parent
func (n *Node) IsRoot() bool {
	return n.PAR == nil
}

//Left will return the left child (nil at leaves)
func (n *Node) Left() *Node {
	if len(n.CHLD) == 0 {
		return nil
	}
	return n.CHLD[0]
}

//Right will return the right child (nil at leaves)
func (n *Node) Right() *Node {
	if len(n.CHLD) == 0 {
		return nil
	}
	return n.CHLD[1]
}

//AddChild will attach a child node and set its parent pointer
func (n *Node) AddChild(c *Node) {
	n.CHLD = append(n.CHLD, c)
	c.PAR = n
}

//PreorderArray will return a preorder slice of the subtree rooted at n
func (n *Node) PreorderArray() (ret []*Node) {
	var buffer []*Node
	buffer = append(buffer, n)
	for len(buffer) > 0 {
		cur := buffer[len(buffer)-1]
		buffer = buffer[:len(buffer)-1]
		ret = append(ret, cur)
		for i := len(cur.CHLD) - 1; i >= 0; i-- {
			buffer = append(buffer, cur.CHLD[i])
		}
	}
	return
}

//PostorderArray will return a postorder slice of the subtree rooted at n
func (n *Node) PostorderArray() (ret []*Node) {
	for _, chld := range n.CHLD {
		ret = append(ret, chld.PostorderArray()...)
	}
	ret = append(ret, n)
	return
}

//Newick will return the newick string of the subtree rooted at n,
//with branch lengths if bl is true
func (n *Node) Newick(bl bool) string {
	var s string
	if len(n.CHLD) > 0 {
		s = "("
		for i, chld := range n.CHLD {
			if i > 0 {
				s += ","
			}
			s += chld.Newick(bl)
		}
		s += ")"
	}
	s += n.NAME
	if bl {
		s += ":" + strconv.FormatFloat(n.LEN, 'f', -1, 64)
	}
	return s
}
