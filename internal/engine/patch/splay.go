package patch

import "github.com/dshills/buffercore/internal/engine/point"

// splayNode rotates n to the root. p.nodeStack must hold n's ancestors,
// root first.
func (p *Patch) splayNode(n nodeID) {
	for len(p.nodeStack) > 0 {
		parent := p.pop()
		if len(p.nodeStack) == 0 {
			if p.node(parent).left == n {
				p.rotateRight(n, parent, nilNode)
			} else {
				p.rotateLeft(n, parent, nilNode)
			}
			continue
		}

		grandparent := p.nodeStack[len(p.nodeStack)-1]
		greatGrandparent := nilNode
		if len(p.nodeStack) > 1 {
			greatGrandparent = p.nodeStack[len(p.nodeStack)-2]
		}
		gp := p.node(grandparent)
		pa := p.node(parent)

		switch {
		case gp.left == parent && pa.right == n:
			p.rotateLeft(n, parent, grandparent)
			p.rotateRight(n, grandparent, greatGrandparent)
		case gp.right == parent && pa.left == n:
			p.rotateRight(n, parent, grandparent)
			p.rotateLeft(n, grandparent, greatGrandparent)
		case gp.left == parent && pa.left == n:
			p.rotateRight(parent, grandparent, greatGrandparent)
			p.rotateRight(n, parent, greatGrandparent)
		default:
			p.rotateLeft(parent, grandparent, greatGrandparent)
			p.rotateLeft(n, parent, greatGrandparent)
		}
		p.pop()
	}
}

func (p *Patch) pop() nodeID {
	last := len(p.nodeStack) - 1
	n := p.nodeStack[last]
	p.nodeStack = p.nodeStack[:last]
	return n
}

// splayNodeEndingBefore splays the last node ending at or before target.
func (p *Patch) splayNodeEndingBefore(s space, target point.Point) nodeID {
	splayed := nilNode
	splayedAncestors := 0
	leftAncestorEnd := point.Zero
	p.nodeStack = p.nodeStack[:0]

	for n := p.root; n != nilNode; {
		nd := p.node(n)
		nodeStart := leftAncestorEnd.Traverse(s.distance(nd))
		nodeEnd := nodeStart.Traverse(s.extent(nd))
		if nodeEnd.Compare(target) <= 0 {
			splayed = n
			splayedAncestors = len(p.nodeStack)
			if nd.right == nilNode {
				break
			}
			leftAncestorEnd = nodeEnd
			p.nodeStack = append(p.nodeStack, n)
			n = nd.right
		} else {
			if nd.left == nilNode {
				break
			}
			p.nodeStack = append(p.nodeStack, n)
			n = nd.left
		}
	}

	if splayed != nilNode {
		p.nodeStack = p.nodeStack[:splayedAncestors]
		p.splayNode(splayed)
	}
	return splayed
}

// splayNodeStartingBefore splays the last node starting at or before target.
func (p *Patch) splayNodeStartingBefore(s space, target point.Point) nodeID {
	splayed := nilNode
	splayedAncestors := 0
	leftAncestorEnd := point.Zero
	p.nodeStack = p.nodeStack[:0]

	for n := p.root; n != nilNode; {
		nd := p.node(n)
		nodeStart := leftAncestorEnd.Traverse(s.distance(nd))
		if nodeStart.Compare(target) <= 0 {
			splayed = n
			splayedAncestors = len(p.nodeStack)
			if nd.right == nilNode {
				break
			}
			leftAncestorEnd = nodeStart.Traverse(s.extent(nd))
			p.nodeStack = append(p.nodeStack, n)
			n = nd.right
		} else {
			if nd.left == nilNode {
				break
			}
			p.nodeStack = append(p.nodeStack, n)
			n = nd.left
		}
	}

	if splayed != nilNode {
		p.nodeStack = p.nodeStack[:splayedAncestors]
		p.splayNode(splayed)
	}
	return splayed
}

// splayNodeEndingAfter splays the first node ending at or after target and
// strictly after exclusiveLowerBound.
func (p *Patch) splayNodeEndingAfter(s space, target, exclusiveLowerBound point.Point) nodeID {
	splayed := nilNode
	splayedAncestors := 0
	leftAncestorEnd := point.Zero
	p.nodeStack = p.nodeStack[:0]

	for n := p.root; n != nilNode; {
		nd := p.node(n)
		nodeStart := leftAncestorEnd.Traverse(s.distance(nd))
		nodeEnd := nodeStart.Traverse(s.extent(nd))
		if nodeEnd.Compare(target) >= 0 && nodeEnd.After(exclusiveLowerBound) {
			splayed = n
			splayedAncestors = len(p.nodeStack)
			if nd.left == nilNode {
				break
			}
			p.nodeStack = append(p.nodeStack, n)
			n = nd.left
		} else {
			if nd.right == nilNode {
				break
			}
			leftAncestorEnd = nodeEnd
			p.nodeStack = append(p.nodeStack, n)
			n = nd.right
		}
	}

	if splayed != nilNode {
		p.nodeStack = p.nodeStack[:splayedAncestors]
		p.splayNode(splayed)
	}
	return splayed
}

// splayNodeStartingAfter splays the first node starting at or after target
// and strictly after exclusiveLowerBound.
func (p *Patch) splayNodeStartingAfter(s space, target, exclusiveLowerBound point.Point) nodeID {
	splayed := nilNode
	splayedAncestors := 0
	leftAncestorEnd := point.Zero
	p.nodeStack = p.nodeStack[:0]

	for n := p.root; n != nilNode; {
		nd := p.node(n)
		nodeStart := leftAncestorEnd.Traverse(s.distance(nd))
		if nodeStart.Compare(target) >= 0 && nodeStart.After(exclusiveLowerBound) {
			splayed = n
			splayedAncestors = len(p.nodeStack)
			if nd.left == nilNode {
				break
			}
			p.nodeStack = append(p.nodeStack, n)
			n = nd.left
		} else {
			if nd.right == nilNode {
				break
			}
			leftAncestorEnd = nodeStart.Traverse(s.extent(nd))
			p.nodeStack = append(p.nodeStack, n)
			n = nd.right
		}
	}

	if splayed != nilNode {
		p.nodeStack = p.nodeStack[:splayedAncestors]
		p.splayNode(splayed)
	}
	return splayed
}
