package dictionary

// CheckPartition verifies that no voxel is touched by IC segments assigned
// to different workers. It returns an *OverlapError for the first voxel
// found in segment order, or nil when the partition is voxel-disjoint.
//
// The projection itself never synchronizes writes to the output; this is
// the only place the disjointness precondition is asserted.
func CheckPartition(ic ICSegments, part Partition) error {
	owner := make(map[uint32]uint8, len(ic.Voxel)/2+1)
	for i, v := range ic.Voxel {
		t := part[i]
		if prev, ok := owner[v]; ok {
			if prev != t {
				return &OverlapError{Voxel: v, First: prev, Second: t}
			}
			continue
		}
		owner[v] = t
	}
	return nil
}
