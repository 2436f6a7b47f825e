// Package dataset loads, saves and synthesizes complete projection problems.
// It plays the part of the host environment around the projection engine:
// it materializes the dictionary, kernels, partition and coefficients that
// the engine takes as already-validated input.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tractoproj/internal/models"
	"tractoproj/pkg/dictionary"
)

// Problem is everything one forward projection needs.
type Problem struct {
	Counts     dictionary.Counts
	Dictionary *dictionary.Dictionary
	Kernels    *dictionary.Kernels
	Partition  dictionary.Partition
	X          []float64

	// Threads is the number of IC workers the partition was built for.
	Threads int
}

// RequiredThreads returns the smallest worker count that covers every id of
// part, and at least one.
func RequiredThreads(part dictionary.Partition) int {
	n := 1
	for _, t := range part {
		n = max(n, int(t)+1)
	}
	return n
}

// Load reads a YAML dataset file.
func Load(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	var doc models.DatasetFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing dataset: %w", err)
	}
	return FromDocument(&doc)
}

// Save writes p to path as a YAML dataset file.
func Save(p *Problem, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating dataset directory: %w", err)
	}

	data, err := yaml.Marshal(ToDocument(p))
	if err != nil {
		return fmt.Errorf("error marshaling dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing dataset: %w", err)
	}
	return nil
}

// FromDocument converts a parsed dataset document into a Problem.
func FromDocument(doc *models.DatasetFile) (*Problem, error) {
	part := make(dictionary.Partition, len(doc.Partition))
	for i, t := range doc.Partition {
		if t < 0 || t >= dictionary.MaxThreads {
			return nil, fmt.Errorf("partition entry %d has worker id %d outside [0, %d)", i, t, dictionary.MaxThreads)
		}
		part[i] = uint8(t)
	}

	threads := doc.Threads
	if threads == 0 {
		threads = RequiredThreads(part)
	}
	if threads < 1 || threads > dictionary.MaxThreads {
		return nil, fmt.Errorf("dataset declares %d threads, must be in [1, %d]", threads, dictionary.MaxThreads)
	}
	if need := RequiredThreads(part); need > threads {
		return nil, fmt.Errorf("partition uses %d workers but the dataset declares %d threads", need, threads)
	}

	return &Problem{
		Counts: dictionary.Counts{
			IC:  doc.Compartments.IC,
			EC:  doc.Compartments.EC,
			ISO: doc.Compartments.ISO,
		},
		Dictionary: &dictionary.Dictionary{
			IC: dictionary.ICSegments{
				Fiber:       doc.IC.Fiber,
				Voxel:       doc.IC.Voxel,
				Orientation: doc.IC.Orientation,
				Length:      doc.IC.Length,
			},
			EC: dictionary.ECSegments{
				Voxel:       doc.EC.Voxel,
				Orientation: doc.EC.Orientation,
			},
			ISO: dictionary.ISOSegments{Voxel: doc.ISO.Voxel},
			Dim: doc.Dim,
		},
		Kernels: &dictionary.Kernels{
			NumSamples: doc.NumSamples,
			IC:         doc.Kernels.IC,
			EC:         doc.Kernels.EC,
			ISO:        doc.Kernels.ISO,
		},
		Partition: part,
		X:         doc.Coefficients,
		Threads:   threads,
	}, nil
}

// ToDocument converts p into its YAML document form.
func ToDocument(p *Problem) *models.DatasetFile {
	part := make([]int, len(p.Partition))
	for i, t := range p.Partition {
		part[i] = int(t)
	}

	d := p.Dictionary
	return &models.DatasetFile{
		Dim:        d.Dim,
		NumSamples: p.Kernels.NumSamples,
		Compartments: models.CompartmentCounts{
			IC:  p.Counts.IC,
			EC:  p.Counts.EC,
			ISO: p.Counts.ISO,
		},
		IC: models.ICTable{
			Fiber:       d.IC.Fiber,
			Voxel:       d.IC.Voxel,
			Orientation: d.IC.Orientation,
			Length:      d.IC.Length,
		},
		EC: models.ECTable{
			Voxel:       d.EC.Voxel,
			Orientation: d.EC.Orientation,
		},
		ISO: models.ISOTable{Voxel: d.ISO.Voxel},
		Kernels: models.KernelTable{
			IC:  p.Kernels.IC,
			EC:  p.Kernels.EC,
			ISO: p.Kernels.ISO,
		},
		Threads:      p.Threads,
		Partition:    part,
		Coefficients: p.X,
	}
}
