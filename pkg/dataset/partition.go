package dataset

import (
	"cmp"
	"slices"

	"tractoproj/pkg/dictionary"
)

// PartitionByVoxel assigns IC segments to threads so that every voxel is
// owned by exactly one thread. Voxels are taken heaviest first and each goes
// to the thread with the fewest segments so far, lowest id on ties. The
// result is deterministic for a given segment table and thread count.
func PartitionByVoxel(ic dictionary.ICSegments, threads int) dictionary.Partition {
	threads = min(max(threads, 1), dictionary.MaxThreads)

	load := make(map[uint32]int)
	for _, v := range ic.Voxel {
		load[v]++
	}

	voxels := make([]uint32, 0, len(load))
	for v := range load {
		voxels = append(voxels, v)
	}
	slices.SortFunc(voxels, func(a, b uint32) int {
		if c := cmp.Compare(load[b], load[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	owner := make(map[uint32]uint8, len(voxels))
	assigned := make([]int, threads)
	for _, v := range voxels {
		t := 0
		for i := 1; i < threads; i++ {
			if assigned[i] < assigned[t] {
				t = i
			}
		}
		owner[v] = uint8(t)
		assigned[t] += load[v]
	}

	part := make(dictionary.Partition, len(ic.Voxel))
	for i, v := range ic.Voxel {
		part[i] = owner[v]
	}
	return part
}
