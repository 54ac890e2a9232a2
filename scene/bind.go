package scene

// BindStats reports how a Bind call reconciled data against the tree.
type BindStats struct {
	Entered int
	Updated int
	Exited  int
}

// Bind reconciles a slice of data against the keyed children of parent that
// share the given kind and class. Children whose key matches a datum are
// updated in place, children with no matching datum are removed, and data
// with no matching child get a fresh node. The apply function positions and
// styles the node; entered reports whether the node was created by this call
// so that apply can attach handlers exactly once.
//
// Children of other classes (for example, a plot's decoration layer living
// beside its data layer) are left untouched.
func Bind[T any](parent *Node, kind Kind, class string, data []T, key func(T) string, apply func(n *Node, datum T, entered bool)) BindStats {
	var stats BindStats

	existing := make(map[string]*Node)
	for _, c := range parent.children {
		if c.kind == kind && c.class == class {
			existing[c.key] = c
		}
	}

	keep := make(map[string]bool, len(data))
	for _, d := range data {
		k := key(d)
		keep[k] = true
		n, ok := existing[k]
		if !ok {
			n = &Node{kind: kind, class: class, key: k, parent: parent}
			parent.children = append(parent.children, n)
			stats.Entered++
		} else {
			stats.Updated++
		}
		apply(n, d, !ok)
	}

	departed := false
	for k := range existing {
		if !keep[k] {
			departed = true
			break
		}
	}
	if departed {
		filtered := parent.children[:0]
		for _, c := range parent.children {
			if c.kind == kind && c.class == class && !keep[c.key] {
				c.parent = nil
				stats.Exited++
				continue
			}
			filtered = append(filtered, c)
		}
		parent.children = filtered
	}
	return stats
}
