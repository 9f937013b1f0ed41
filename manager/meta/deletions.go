package meta

import (
	"errors"
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/dot5enko/colstore/io"
)

func readDeletions(path string) (*roaring.Bitmap, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return roaring.New(), 0, nil
		}
		return nil, 0, fmt.Errorf("%w: unable to read deletions %s: %w", ErrIOFailure, path, err)
	}

	result := roaring.New()
	if err = result.UnmarshalBinary(data); err != nil {
		return nil, 0, fmt.Errorf("%w: unable to decode deletions %s: %w", ErrCorruptSegment, path, err)
	}

	return result, int64(len(data)), nil
}

func writeDeletions(path string, deleted *roaring.Bitmap) (int64, error) {
	deleted.RunOptimize()

	data, err := deleted.ToBytes()
	if err != nil {
		return 0, fmt.Errorf("unable to encode deletions: %w", err)
	}

	if err = io.WriteFileAtomic(path, data); err != nil {
		return 0, fmt.Errorf("%w: unable to write deletions: %w", ErrIOFailure, err)
	}

	return int64(len(data)), nil
}
