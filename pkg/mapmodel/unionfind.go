package mapmodel

import "github.com/matzehuels/railmap/pkg/network"

// unionFind is a disjoint-set forest over route keys that remembers the
// order keys were added in, so the sets it yields are deterministic.
type unionFind struct {
	parent map[network.RouteKey]network.RouteKey
	rank   map[network.RouteKey]int
	keys   []network.RouteKey
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[network.RouteKey]network.RouteKey),
		rank:   make(map[network.RouteKey]int),
	}
}

// add inserts k as a singleton if it is not present yet.
func (u *unionFind) add(k network.RouteKey) {
	if _, ok := u.parent[k]; ok {
		return
	}
	u.parent[k] = k
	u.keys = append(u.keys, k)
}

func (u *unionFind) find(k network.RouteKey) network.RouteKey {
	root := k
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for k != root {
		next := u.parent[k]
		u.parent[k] = root
		k = next
	}
	return root
}

func (u *unionFind) union(a, b network.RouteKey) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

// sets returns the disjoint sets. Sets are ordered by their earliest added
// key and members keep insertion order.
func (u *unionFind) sets() [][]network.RouteKey {
	index := make(map[network.RouteKey]int)
	var out [][]network.RouteKey
	for _, k := range u.keys {
		root := u.find(k)
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], k)
	}
	return out
}
