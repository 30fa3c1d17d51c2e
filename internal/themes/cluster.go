package themes

import (
	"docmind/internal/vec"
)

// cluster is a group of record indices with a running centroid.
type cluster struct {
	members  []int
	centroid []float32
}

// agglomerate groups vectors by average-linkage agglomerative clustering:
// every vector starts as its own cluster and the closest pair (by centroid
// cosine) merges until no pair clears the similarity threshold. The
// cluster count is therefore data-driven, never supplied by the caller.
// Merging order is deterministic: on equal similarity the lowest index
// pair wins.
func agglomerate(vectors [][]float32, threshold float32) []*cluster {
	clusters := make([]*cluster, len(vectors))
	for i, v := range vectors {
		centroid := make([]float32, len(v))
		copy(centroid, v)
		clusters[i] = &cluster{members: []int{i}, centroid: centroid}
	}

	for len(clusters) > 1 {
		bestI, bestJ := -1, -1
		var bestSim float32
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				sim := vec.Cosine(clusters[i].centroid, clusters[j].centroid)
				if sim > bestSim {
					bestSim, bestI, bestJ = sim, i, j
				}
			}
		}

		if bestI < 0 || bestSim < threshold {
			break
		}

		merged := &cluster{
			members: append(append([]int{}, clusters[bestI].members...), clusters[bestJ].members...),
		}
		vecs := make([][]float32, 0, len(merged.members))
		for _, m := range merged.members {
			vecs = append(vecs, vectors[m])
		}
		merged.centroid = vec.Centroid(vecs)

		next := make([]*cluster, 0, len(clusters)-1)
		for k, c := range clusters {
			if k != bestI && k != bestJ {
				next = append(next, c)
			}
		}
		clusters = append(next, merged)
	}

	return clusters
}

// partition splits clusters into themes and an outlier pool: clusters
// below minSize are folded into the catch-all rather than dropped.
func partition(clusters []*cluster, minSize int) (themes []*cluster, outliers []int) {
	for _, c := range clusters {
		if len(c.members) >= minSize {
			themes = append(themes, c)
		} else {
			outliers = append(outliers, c.members...)
		}
	}
	return themes, outliers
}
