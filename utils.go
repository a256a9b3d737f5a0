package generaxcore

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

//InternalNodeSlice will return a slice containing only internal nodes
func InternalNodeSlice(nodes []*Node) []*Node {
	return lo.Filter(nodes, func(n *Node, _ int) bool {
		return len(n.CHLD) == 2
	})
}

//TipNodeSlice will return a slice containing only leaf nodes
func TipNodeSlice(nodes []*Node) []*Node {
	return lo.Filter(nodes, func(n *Node, _ int) bool {
		return len(n.CHLD) == 0
	})
}

//TreeLength will return the total length of a slice of nodes,
//excluding the root branch
func TreeLength(nodes []*Node) float64 {
	length := 0.
	for _, n := range nodes {
		if n.PAR == nil {
			continue
		}
		length += n.LEN
	}
	return length
}

//ReadLine is like the Python readline() and readlines()
func ReadLine(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read file %s", path)
	}
	return strings.Split(string(b), "\n"), nil
}
