package clustering

// unionFind groups element indices into disjoint sets.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent, rank: make([]int, n)}
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y int) {
	px, py := uf.find(x), uf.find(y)
	if px == py {
		return
	}
	if uf.rank[px] < uf.rank[py] {
		px, py = py, px
	}
	uf.parent[py] = px
	if uf.rank[px] == uf.rank[py] {
		uf.rank[px]++
	}
}

// groups returns the sets with at least minSize members.
// Sets are ordered by their smallest index and members ascend.
func (uf *unionFind) groups(minSize int) [][]int {
	byRoot := make(map[int]int)
	var out [][]int
	for i := range uf.parent {
		root := uf.find(i)
		idx, ok := byRoot[root]
		if !ok {
			idx = len(out)
			byRoot[root] = idx
			out = append(out, nil)
		}
		out[idx] = append(out[idx], i)
	}

	kept := out[:0]
	for _, g := range out {
		if len(g) >= minSize {
			kept = append(kept, g)
		}
	}
	return kept
}
