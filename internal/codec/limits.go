package codec

import (
	"fmt"
	"math"
)

// Limits bounds what Encode accepts and what Decode trusts.
type Limits struct {
	MaxFileSize       int
	MaxTotalSize      int
	MaxFileCount      int
	MaxFilenameLength int
	MaxLanguageLength int
}

// DefaultLimits returns the limits used when nothing else is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:       500 * 1024,
		MaxTotalSize:      5 * 1024 * 1024,
		MaxFileCount:      20,
		MaxFilenameLength: 255,
		MaxLanguageLength: 50,
	}
}

// Validate checks that every limit is positive and fits its wire field.
func (l Limits) Validate() error {
	switch {
	case l.MaxFileSize <= 0 || uint64(l.MaxFileSize) > math.MaxUint32:
		return fmt.Errorf("%w: max file size %d", ErrInvalidLimits, l.MaxFileSize)
	case l.MaxTotalSize <= 0 || uint64(l.MaxTotalSize) > math.MaxUint32:
		return fmt.Errorf("%w: max total size %d", ErrInvalidLimits, l.MaxTotalSize)
	case l.MaxFileCount <= 0 || l.MaxFileCount > math.MaxUint16:
		return fmt.Errorf("%w: max file count %d", ErrInvalidLimits, l.MaxFileCount)
	case l.MaxFilenameLength <= 0 || l.MaxFilenameLength > math.MaxUint16:
		return fmt.Errorf("%w: max filename length %d", ErrInvalidLimits, l.MaxFilenameLength)
	case l.MaxLanguageLength < 0 || l.MaxLanguageLength > math.MaxUint8:
		return fmt.Errorf("%w: max language length %d", ErrInvalidLimits, l.MaxLanguageLength)
	}
	return nil
}
