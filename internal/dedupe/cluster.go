package dedupe

import "sort"

// Cluster is one connected component of matched events, identified by the
// "source:source_id" keys of its members.
type Cluster struct {
	Members []string
}

// BuildClusters forms connected components over the matched pairs:
// if A matches B and B matches C, all three land in one cluster even when A
// and C never scored above the threshold. Every key in allKeys appears in
// exactly one cluster; unmatched events form singletons. Output order is
// deterministic.
func BuildClusters(allKeys []string, pairs []ScoredPair) []Cluster {
	uf := newUnionFind(allKeys)
	for _, pair := range pairs {
		if pair.IsMatch() {
			uf.union(pair.Left, pair.Right)
		}
	}

	groups := make(map[string][]string)
	for _, key := range allKeys {
		root := uf.find(key)
		groups[root] = append(groups[root], key)
	}

	clusters := make([]Cluster, 0, len(groups))
	for _, members := range groups {
		sort.Strings(members)
		clusters = append(clusters, Cluster{Members: members})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Members[0] < clusters[j].Members[0]
	})
	return clusters
}

type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(keys []string) *unionFind {
	uf := &unionFind{
		parent: make(map[string]string, len(keys)),
		rank:   make(map[string]int, len(keys)),
	}
	for _, key := range keys {
		uf.parent[key] = key
	}
	return uf
}

func (uf *unionFind) find(key string) string {
	root := key
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	// Path compression.
	for uf.parent[key] != root {
		uf.parent[key], key = root, uf.parent[key]
	}
	return root
}

func (uf *unionFind) union(a, b string) {
	rootA, rootB := uf.find(a), uf.find(b)
	if rootA == rootB {
		return
	}
	if uf.rank[rootA] < uf.rank[rootB] {
		rootA, rootB = rootB, rootA
	}
	uf.parent[rootB] = rootA
	if uf.rank[rootA] == uf.rank[rootB] {
		uf.rank[rootA]++
	}
}
