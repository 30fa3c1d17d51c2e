package themes

import (
	"reflect"
	"testing"
)

func TestAgglomerateStopsAtThreshold(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.99, 0.01, 0},
		{0, 1, 0},
		{0, 0.99, 0.01},
	}

	clusters := agglomerate(vectors, 0.8)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	for _, c := range clusters {
		if len(c.members) != 2 {
			t.Errorf("cluster members = %v, want pairs", c.members)
		}
	}
}

func TestAgglomerateIsDeterministic(t *testing.T) {
	vectors := [][]float32{
		{1, 0}, {0.9, 0.1}, {0.8, 0.2}, {0, 1}, {0.1, 0.9},
	}

	var previous [][]int
	for run := 0; run < 3; run++ {
		clusters := agglomerate(vectors, 0.7)
		var members [][]int
		for _, c := range clusters {
			members = append(members, c.members)
		}
		if previous != nil && !reflect.DeepEqual(members, previous) {
			t.Fatalf("run %d produced %v, earlier run produced %v", run, members, previous)
		}
		previous = members
	}
}

func TestAgglomerateSingleVector(t *testing.T) {
	clusters := agglomerate([][]float32{{1, 0}}, 0.5)
	if len(clusters) != 1 || len(clusters[0].members) != 1 {
		t.Fatalf("unexpected clustering of a single vector: %+v", clusters)
	}
}

func TestPartitionFoldsSmallClustersIntoOutliers(t *testing.T) {
	clusters := []*cluster{
		{members: []int{0, 1, 2}},
		{members: []int{3}},
		{members: []int{4, 5}},
		{members: []int{6}},
	}

	themes, outliers := partition(clusters, 2)
	if len(themes) != 2 {
		t.Fatalf("expected 2 themes, got %d", len(themes))
	}
	if !reflect.DeepEqual(outliers, []int{3, 6}) {
		t.Errorf("outliers = %v, want [3 6]", outliers)
	}
}
