//go:build !tractodebug

package projection

const partitionAssertions = false
