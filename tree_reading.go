package generaxcore

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//ReadTree will parse a newick string into a rooted binary tree and
//return its root. Polytomies and unrooted (trifurcating) newicks are
//rejected, as the searches only operate on rooted binary trees.
func ReadTree(nwk string) (*Node, error) {
	p := &newickParser{s: strings.TrimSpace(nwk)}
	root, err := p.parseClade()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.s) && p.s[p.pos] == ';' {
		p.pos++
	}
	p.skipSpaces()
	if p.pos != len(p.s) {
		return nil, errors.Errorf("unexpected trailing characters at position %d in newick string", p.pos)
	}
	return root, nil
}

type newickParser struct {
	s   string
	pos int
}

func (p *newickParser) skipSpaces() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *newickParser) parseClade() (*Node, error) {
	p.skipSpaces()
	if p.pos >= len(p.s) {
		return nil, errors.New("unexpected end of newick string")
	}
	node := &Node{}
	if p.s[p.pos] == '(' {
		p.pos++
		for {
			chld, err := p.parseClade()
			if err != nil {
				return nil, err
			}
			node.AddChild(chld)
			p.skipSpaces()
			if p.pos >= len(p.s) {
				return nil, errors.New("unbalanced parenthesis in newick string")
			}
			if p.s[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.s[p.pos] == ')' {
				p.pos++
				break
			}
			return nil, errors.Errorf("unexpected character %q at position %d in newick string", p.s[p.pos], p.pos)
		}
		if len(node.CHLD) != 2 {
			return nil, errors.Errorf("node with %d children: only rooted binary trees are supported", len(node.CHLD))
		}
	}
	node.NAME = p.parseLabel()
	if len(node.CHLD) == 0 && node.NAME == "" {
		return nil, errors.Errorf("leaf without a label at position %d in newick string", p.pos)
	}
	p.skipSpaces()
	if p.pos < len(p.s) && p.s[p.pos] == ':' {
		p.pos++
		start := p.pos
		for p.pos < len(p.s) && !strings.ContainsRune("(),:;", rune(p.s[p.pos])) {
			p.pos++
		}
		bl, err := strconv.ParseFloat(strings.TrimSpace(p.s[start:p.pos]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid branch length at position %d in newick string", start)
		}
		node.LEN = bl
	}
	return node, nil
}

func (p *newickParser) parseLabel() string {
	start := p.pos
	for p.pos < len(p.s) && !strings.ContainsRune("(),:;", rune(p.s[p.pos])) {
		p.pos++
	}
	return strings.TrimSpace(p.s[start:p.pos])
}
