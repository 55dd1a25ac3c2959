package dag

// Levels groups nodes by dependency depth. Level 0 holds the nodes with no
// dependencies; every other node sits one level above its deepest
// dependency. Nodes within a level have no path between them and can run in
// parallel. Within a level, names keep graph order.
//
// Levels is only meaningful on a sorted graph and returns nil otherwise.
func (g *Graph) Levels() [][]string {
	if !g.sorted {
		return nil
	}

	depth := make(map[string]int, len(g.order))
	var levels [][]string

	// Order is dependency-first, so every dependency already has a depth.
	for _, name := range g.order {
		d := 0
		for _, dep := range g.deps[name] {
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[name] = d

		if d == len(levels) {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], name)
	}

	return levels
}
