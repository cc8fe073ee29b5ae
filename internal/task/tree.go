package task

// Node is a task plus its computed tree position. ChildIDs and Depth are
// view data, regenerated on every build; they are never read back as a
// source of truth.
type Node struct {
	Task     Task
	Depth    int
	ChildIDs []string
	Children []*Node
}

// BuildTree assembles a flat task list into a forest of root nodes.
//
// Tasks whose parent is missing from the input are promoted to roots, as is
// every member of a parent cycle. Duplicate ids keep the first occurrence.
// Child order follows input order. The input is not mutated.
func BuildTree(tasks []Task) []*Node {
	nodes := make(map[string]*Node, len(tasks))
	var order []string
	for _, t := range tasks {
		if _, ok := nodes[t.ID]; ok {
			continue
		}
		nodes[t.ID] = &Node{Task: t}
		order = append(order, t.ID)
	}

	cyclic := cycleMembers(nodes, order)

	var roots []*Node
	for _, id := range order {
		n := nodes[id]
		pid := n.Task.ParentID
		parent, ok := nodes[pid]
		if pid == "" || !ok || pid == id || cyclic[id] {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
		parent.ChildIDs = append(parent.ChildIDs, id)
	}

	for _, r := range roots {
		setDepth(r, 0)
	}
	return roots
}

// cycleMembers finds every id whose parent chain loops back on itself.
func cycleMembers(nodes map[string]*Node, order []string) map[string]bool {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(nodes))
	cyclic := make(map[string]bool)

	for _, start := range order {
		if state[start] != unvisited {
			continue
		}
		var chain []string
		id := start
		for {
			if state[id] == visiting {
				// Mark everything from the first occurrence of id onward.
				inCycle := false
				for _, c := range chain {
					if c == id {
						inCycle = true
					}
					if inCycle {
						cyclic[c] = true
					}
				}
				break
			}
			if state[id] == done {
				break
			}
			state[id] = visiting
			chain = append(chain, id)

			n := nodes[id]
			pid := n.Task.ParentID
			if pid == "" || pid == id {
				break
			}
			if _, ok := nodes[pid]; !ok {
				break
			}
			id = pid
		}
		for _, c := range chain {
			state[c] = done
		}
	}
	return cyclic
}

func setDepth(n *Node, depth int) {
	n.Depth = depth
	for _, c := range n.Children {
		setDepth(c, depth+1)
	}
}

// Flatten walks the forest depth-first and returns nodes in display order.
func Flatten(roots []*Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// ChildIDs recomputes the direct children of id from a flat task list,
// in input order.
func ChildIDs(id string, tasks []Task) []string {
	var out []string
	for _, t := range tasks {
		if t.ParentID == id && t.ID != id {
			out = append(out, t.ID)
		}
	}
	return out
}
