package dedupe

import (
	"reflect"
	"testing"
)

func matchedPair(left, right string) ScoredPair {
	return ScoredPair{Left: left, Right: right, Probability: 0.99}
}

func TestBuildClustersTransitive(t *testing.T) {
	t.Parallel()

	keys := []string{"SPR:1", "GSP:2", "EC:3", "SPU:4"}
	pairs := []ScoredPair{
		matchedPair("SPR:1", "GSP:2"),
		matchedPair("GSP:2", "EC:3"),
	}

	clusters := BuildClusters(keys, pairs)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	want := []string{"EC:3", "GSP:2", "SPR:1"}
	if !reflect.DeepEqual(clusters[0].Members, want) {
		t.Errorf("merged cluster = %v, want %v", clusters[0].Members, want)
	}
	if !reflect.DeepEqual(clusters[1].Members, []string{"SPU:4"}) {
		t.Errorf("singleton = %v", clusters[1].Members)
	}
}

func TestBuildClustersIgnoresBelowThreshold(t *testing.T) {
	t.Parallel()

	keys := []string{"SPR:1", "GSP:2"}
	pairs := []ScoredPair{{Left: "SPR:1", Right: "GSP:2", Probability: 0.85}}

	clusters := BuildClusters(keys, pairs)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
}

func TestBuildClustersPartition(t *testing.T) {
	t.Parallel()

	keys := []string{"SPR:1", "GSP:2", "EC:3", "SPU:4", "MAN:5"}
	pairs := []ScoredPair{
		matchedPair("SPR:1", "GSP:2"),
		matchedPair("EC:3", "SPU:4"),
	}

	clusters := BuildClusters(keys, pairs)
	seen := make(map[string]int)
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			seen[member]++
		}
	}
	for _, key := range keys {
		if seen[key] != 1 {
			t.Errorf("key %s appears %d times across clusters", key, seen[key])
		}
	}
}

func TestBuildClustersDeterministicOrder(t *testing.T) {
	t.Parallel()

	keys := []string{"SPU:4", "SPR:1", "GSP:2", "EC:3"}
	pairs := []ScoredPair{matchedPair("GSP:2", "EC:3")}

	first := BuildClusters(keys, pairs)
	second := BuildClusters([]string{"EC:3", "GSP:2", "SPR:1", "SPU:4"}, pairs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cluster order depends on input order:\n%v\n%v", first, second)
	}
}
