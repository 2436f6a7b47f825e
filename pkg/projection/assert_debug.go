//go:build tractodebug

package projection

// partitionAssertions makes every unchecked invocation verify that the
// partition is voxel-disjoint before the IC workers start.
const partitionAssertions = true
