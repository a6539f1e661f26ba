package assign

import "math"

// NearestNeighborOrder produces a visiting order over the travel-time matrix
// starting from the fixed pickup at index 0: repeatedly append the unvisited
// stop with the smallest duration from the current last stop, first found on
// ties. If the current row has no finite entry to any unvisited stop, the
// remaining stops are appended in their original order.
//
// The returned slice always starts with 0 and is a permutation of
// 0..len(matrix)-1.
func NearestNeighborOrder(matrix [][]float64) []int {
	n := len(matrix)
	order := make([]int, 0, n)
	if n == 0 {
		return order
	}
	visited := make([]bool, n)
	cur := 0
	order = append(order, 0)
	visited[0] = true

	for len(order) < n {
		best := -1
		bestDur := math.Inf(1)
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if d := matrix[cur][j]; d < bestDur {
				best = j
				bestDur = d
			}
		}
		if best == -1 || math.IsInf(bestDur, 1) {
			// Unreachable from here; keep the remaining stops as given.
			for j := 0; j < n; j++ {
				if !visited[j] {
					order = append(order, j)
					visited[j] = true
				}
			}
			break
		}
		order = append(order, best)
		visited[best] = true
		cur = best
	}
	return order
}

// validOrder reports whether a delegated ordering covers each destination
// index 1..n-1 exactly once.
func validOrder(order []int, n int) bool {
	if len(order) != n-1 {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx <= 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// reorder applies a visiting order (indices into items) to a copy of items.
func reorder[T any](items []T, order []int) []T {
	out := make([]T, 0, len(order))
	for _, idx := range order {
		out = append(out, items[idx])
	}
	return out
}
