package registry

// Ceilings for a synced file tree. Anything beyond is truncated or dropped
// before the tree is cached or broadcast; an editor bug must not be able to
// push an unbounded payload through the hub.
const (
	MaxTreeDepth       = 12
	MaxChildrenPerDir  = 500
	MaxFileContentSize = 256 * 1024
	MaxTotalFiles      = 5000
)

// BoundTree enforces the tree ceilings, returning the bounded copy and
// whether anything was cut.
func BoundTree(nodes []FileNode) ([]FileNode, bool) {
	budget := MaxTotalFiles
	out, truncated := boundLevel(nodes, 1, &budget)
	return out, truncated
}

func boundLevel(nodes []FileNode, depth int, budget *int) ([]FileNode, bool) {
	if depth > MaxTreeDepth {
		return nil, len(nodes) > 0
	}
	truncated := false
	if len(nodes) > MaxChildrenPerDir {
		nodes = nodes[:MaxChildrenPerDir]
		truncated = true
	}
	out := make([]FileNode, 0, len(nodes))
	for _, node := range nodes {
		if *budget <= 0 {
			truncated = true
			break
		}
		*budget--
		bounded := node
		if len(bounded.Content) > MaxFileContentSize {
			bounded.Content = bounded.Content[:MaxFileContentSize]
			truncated = true
		}
		if len(bounded.Children) > 0 {
			children, cut := boundLevel(bounded.Children, depth+1, budget)
			bounded.Children = children
			truncated = truncated || cut
		}
		out = append(out, bounded)
	}
	return out, truncated
}

// CountFiles walks the tree counting file nodes only.
func CountFiles(nodes []FileNode) int {
	n := 0
	for _, node := range nodes {
		if node.Type == NodeFile {
			n++
		}
		n += CountFiles(node.Children)
	}
	return n
}
