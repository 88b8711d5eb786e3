package codec

import "github.com/dmitrijs2005/ghostpaste/internal/common"

// Encode-time validation errors. All are client-caused.
var (
	ErrEmptyInput      = common.E(common.KindValidation, "codec: no files to encode")
	ErrEmptyFilename   = common.E(common.KindValidation, "codec: filename is empty")
	ErrFilenameTooLong = common.E(common.KindValidation, "codec: filename too long")
	ErrFileTooLarge    = common.E(common.KindValidation, "codec: file too large")
	ErrTooManyFiles    = common.E(common.KindValidation, "codec: too many files")
	ErrPayloadTooLarge = common.E(common.KindValidation, "codec: total payload too large")
	ErrLanguageTooLong = common.E(common.KindValidation, "codec: language tag too long")
	ErrInvalidLimits   = common.E(common.KindValidation, "codec: invalid limits")
)

// Decode-time corruption errors.
var (
	ErrBufferTooSmall     = common.E(common.KindFormat, "codec: buffer smaller than header")
	ErrInvalidMagic       = common.E(common.KindFormat, "codec: invalid magic number")
	ErrUnsupportedVersion = common.E(common.KindFormat, "codec: unsupported format version")
	ErrInvalidFileCount   = common.E(common.KindFormat, "codec: invalid file count")
	ErrTruncated          = common.E(common.KindFormat, "codec: unexpected end of data")
	ErrSizeMismatch       = common.E(common.KindFormat, "codec: content size does not match header")
	ErrTrailingData       = common.E(common.KindFormat, "codec: trailing data after last record")
	ErrCorruptRecord      = common.E(common.KindFormat, "codec: record exceeds limits")
	ErrEmptyRecordName    = common.E(common.KindFormat, "codec: record has an empty filename")
	ErrInvalidTotalSize   = common.E(common.KindFormat, "codec: header total exceeds limits")
)
