package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"
)

// createSignal builds a signal with numSamples values per voxel where sample s
// of voxel (x, y, z) holds (s+1)*z
func createSignal(width, height, depth, numSamples int) []float64 {
	signal := make([]float64, width*height*depth*numSamples)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				voxel := z*width*height + y*width + x
				for s := 0; s < numSamples; s++ {
					signal[voxel*numSamples+s] = float64((s + 1) * z)
				}
			}
		}
	}
	return signal
}

// TestExtractVolume verifies that a single sample is pulled out of the signal
func TestExtractVolume(t *testing.T) {
	width, height, depth, numSamples := 4, 3, 5, 3
	viewer := NewViewer(createSignal(width, height, depth, numSamples), numSamples, [3]int{width, height, depth})

	volume, err := viewer.ExtractVolume(2)
	if err != nil {
		t.Fatalf("Failed to extract volume: %v", err)
	}
	if len(volume) != width*height*depth {
		t.Fatalf("Expected volume size %d, got %d", width*height*depth, len(volume))
	}

	for z := 0; z < depth; z++ {
		idx := z*width*height + width + 1
		if volume[idx] != float64(3*z) {
			t.Errorf("Expected %f at depth %d, got %f", float64(3*z), z, volume[idx])
		}
	}

	if _, err := viewer.ExtractVolume(numSamples); err == nil {
		t.Error("Expected error for sample out of range, got nil")
	}
}

// TestExtractSlice verifies that slices are correctly extracted and scaled
func TestExtractSlice(t *testing.T) {
	width, height, depth, numSamples := 10, 8, 5, 2
	viewer := NewViewer(createSignal(width, height, depth, numSamples), numSamples, [3]int{width, height, depth})

	// Each Z slice has a constant value proportional to its depth
	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice(1, "z", z)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		gray16Img, ok := img.(*image.Gray16)
		if !ok {
			t.Fatalf("Expected *image.Gray16, got %T", img)
		}

		expected := uint16(float64(z) / float64(depth-1) * 65535)
		got := gray16Img.Gray16At(width/2, height/2).Y
		if diff := int(got) - int(expected); diff > 1 || diff < -1 {
			t.Errorf("Expected Z slice value ~%d at center, got %d", expected, got)
		}
	}

	imgX, err := viewer.ExtractSlice(0, "x", width/2)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	if b := imgX.Bounds(); b.Dx() != depth || b.Dy() != height {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d", depth, height, b.Dx(), b.Dy())
	}

	imgY, err := viewer.ExtractSlice(0, "y", height/2)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	if b := imgY.Bounds(); b.Dx() != width || b.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d", width, depth, b.Dx(), b.Dy())
	}

	if _, err := viewer.ExtractSlice(0, "invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
	if _, err := viewer.ExtractSlice(0, "z", depth+1); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
	if _, err := viewer.ExtractSlice(0, "z", -1); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}

// TestExtractSliceOfEmptySignal verifies that an all-zero sample renders black
func TestExtractSliceOfEmptySignal(t *testing.T) {
	viewer := NewViewer(make([]float64, 4*4*2*3), 3, [3]int{4, 4, 2})

	img, err := viewer.ExtractSlice(0, "z", 1)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	if v := img.(*image.Gray16).Gray16At(2, 2).Y; v != 0 {
		t.Errorf("Expected black pixel, got %d", v)
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	width, height, depth, numSamples := 5, 5, 3, 2
	viewer := NewViewer(createSignal(width, height, depth, numSamples), numSamples, [3]int{width, height, depth})

	outputDir := filepath.Join(t.TempDir(), "slices")
	if err := viewer.SaveSliceSequence(1, "z", outputDir); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("sample_001_z_%03d.jpg", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	if err := viewer.SaveSliceSequence(1, "invalid", outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}
