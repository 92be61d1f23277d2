package markers

// replaceChild points parent's link at old to child, or sets the root.
func (x *Index) replaceChild(parent, old, child nodeID) {
	switch {
	case parent == nilNode:
		x.root = child
	case x.node(parent).left == old:
		x.node(parent).left = child
	default:
		x.node(parent).right = child
	}
}

// rotateLeft lifts pivot, the right child of its parent, above the parent.
//
// Marker bookkeeping: every id spanning the parent's right boundary also
// spans the pivot's new right boundary. Ids on the pivot's left span that
// the parent also spans on its left stay with the pivot only; the rest now
// span the parent's right boundary instead.
func (x *Index) rotateLeft(pivot nodeID) {
	p := x.node(pivot)
	root := p.parent
	r := x.node(root)

	x.replaceChild(r.parent, root, pivot)
	p.parent = r.parent

	r.right = p.left
	if r.right != nilNode {
		x.node(r.right).parent = root
	}

	p.left = root
	r.parent = pivot

	p.leftExtent = r.leftExtent.Traverse(p.leftExtent)

	p.rightMarkers.Or(r.rightMarkers)

	for _, id := range p.leftMarkers.ToArray() {
		if r.leftMarkers.Contains(id) {
			r.leftMarkers.Remove(id)
		} else {
			p.leftMarkers.Remove(id)
			r.rightMarkers.Add(id)
		}
	}
}

// rotateRight lifts pivot, the left child of its parent, above the parent.
// It mirrors rotateLeft, with the pivot's start ids as the tie-break set.
func (x *Index) rotateRight(pivot nodeID) {
	p := x.node(pivot)
	root := p.parent
	r := x.node(root)

	x.replaceChild(r.parent, root, pivot)
	p.parent = r.parent

	r.left = p.right
	if r.left != nilNode {
		x.node(r.left).parent = root
	}

	p.right = root
	r.parent = pivot

	r.leftExtent = r.leftExtent.Traversal(p.leftExtent)

	r.leftMarkers.Iterate(func(id uint32) bool {
		if !p.startMarkers.Contains(id) {
			p.leftMarkers.Add(id)
		}
		return true
	})

	for _, id := range p.rightMarkers.ToArray() {
		if r.rightMarkers.Contains(id) {
			r.rightMarkers.Remove(id)
		} else {
			p.rightMarkers.Remove(id)
			r.leftMarkers.Add(id)
		}
	}
}

// bubbleUp rotates n toward the root while its priority is lower than its
// parent's.
func (x *Index) bubbleUp(n nodeID) {
	for {
		parent := x.node(n).parent
		if parent == nilNode || x.node(n).priority >= x.node(parent).priority {
			return
		}
		if x.node(parent).left == n {
			x.rotateRight(n)
		} else {
			x.rotateLeft(n)
		}
	}
}

// bubbleDown rotates n toward the leaves while a child has a lower priority.
func (x *Index) bubbleDown(n nodeID) {
	for {
		nd := x.node(n)
		leftPriority, rightPriority := deletedPriority, deletedPriority
		if nd.left != nilNode {
			leftPriority = x.node(nd.left).priority
		}
		if nd.right != nilNode {
			rightPriority = x.node(nd.right).priority
		}

		switch {
		case leftPriority < rightPriority && leftPriority < nd.priority:
			x.rotateRight(nd.left)
		case rightPriority < nd.priority:
			x.rotateLeft(nd.right)
		default:
			return
		}
	}
}

// deleteNode bubbles n down to a leaf and unlinks it.
func (x *Index) deleteNode(n nodeID) {
	delete(x.positionCache, n)
	x.node(n).priority = deletedPriority
	x.bubbleDown(n)

	parent := x.node(n).parent
	x.replaceChild(parent, n, nilNode)
	x.freeNode(n)
}

// deleteSubtree frees n and all its descendants without rebalancing.
func (x *Index) deleteSubtree(n nodeID) {
	if n == nilNode {
		return
	}
	stack := []nodeID{n}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := x.node(id)
		if nd.left != nilNode {
			stack = append(stack, nd.left)
		}
		if nd.right != nilNode {
			stack = append(stack, nd.right)
		}
		x.freeNode(id)
	}
}
