// Package visualization renders predicted signal volumes as 2D slice images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
)

// Viewer extracts slices of one sample of a predicted signal volume.
type Viewer struct {
	// signal holds NumSamples values per voxel, sample index fastest
	signal []float64

	// numSamples is the number of samples per voxel
	numSamples int

	// dimensions of the volume
	width  int
	height int
	depth  int
}

// NewViewer creates a viewer over a signal with numSamples values per voxel
// and the given spatial extent
func NewViewer(signal []float64, numSamples int, dim [3]int) *Viewer {
	return &Viewer{
		signal:     signal,
		numSamples: numSamples,
		width:      dim[0],
		height:     dim[1],
		depth:      dim[2],
	}
}

// ExtractVolume returns the 3D volume of a single sample, x varying fastest
func (v *Viewer) ExtractVolume(sample int) ([]float64, error) {
	if sample < 0 || sample >= v.numSamples {
		return nil, fmt.Errorf("sample %d outside [0, %d)", sample, v.numSamples)
	}

	volume := make([]float64, v.width*v.height*v.depth)
	for voxel := range volume {
		idx := voxel*v.numSamples + sample
		if idx < len(v.signal) {
			volume[voxel] = v.signal[idx]
		}
	}
	return volume, nil
}

// ExtractSlice extracts a 2D slice of one sample along the specified axis.
// Intensities are scaled by the largest value of that sample in the volume.
func (v *Viewer) ExtractSlice(sample int, axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	volume, err := v.ExtractVolume(sample)
	if err != nil {
		return nil, err
	}

	peak := 0.0
	for _, value := range volume {
		peak = math.Max(peak, value)
	}
	gray := func(value float64) color.Gray16 {
		if peak <= 0 {
			return color.Gray16{}
		}
		return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, value/peak*65535)))}
	}
	at := func(x, y, z int) float64 {
		return volume[z*v.width*v.height+y*v.width+x]
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}

		img = image.NewGray16(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				img.SetGray16(z, y, gray(at(position, y, z)))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}

		img = image.NewGray16(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, z, gray(at(x, position, z)))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}

		img = image.NewGray16(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, y, gray(at(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice of one sample along the
// specified axis
func (v *Viewer) SaveSliceSequence(sample int, axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(sample, axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("sample_%03d_%s_%03d.jpg", sample, axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
