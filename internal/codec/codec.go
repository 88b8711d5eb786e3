// Package codec implements the GhostPaste binary container: a compact,
// length-prefixed encoding of several named text files in one buffer.
//
// Layout (all integers little-endian):
//
//	header:  [u32 magic][u8 version][u16 fileCount][u32 totalContentSize]
//	record:  [u16 nameLen][name][u32 contentLen][content][u8 langLen][lang]
//
// Lengths are byte counts, not character counts, so multi-byte scripts decode
// unambiguously. The language bytes are absent when langLen is zero.
package codec

import (
	"encoding/binary"
	"fmt"
)

const (
	// Magic identifies a GhostPaste container ("GPST" read big-endian).
	Magic uint32 = 0x47505354

	// FormatVersion is the only container version this package reads or writes.
	FormatVersion uint8 = 1

	// HeaderSize is the fixed size of the container header in bytes.
	HeaderSize = 11

	// recordOverhead is the per-record size of the three length prefixes.
	recordOverhead = 2 + 4 + 1
)

// File is one named text file inside a container.
type File struct {
	Name     string
	Content  string
	Language string
}

// Header is the fixed container header.
type Header struct {
	Magic     uint32
	Version   uint8
	FileCount uint16
	TotalSize uint32
}

// Encode packs files into a container. Every constraint is checked before
// the output buffer is allocated, so a failed call writes nothing.
func Encode(files []File, limits Limits) ([]byte, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrEmptyInput
	}
	if len(files) > limits.MaxFileCount {
		return nil, fmt.Errorf("%w: %d files, max %d", ErrTooManyFiles, len(files), limits.MaxFileCount)
	}

	total := 0
	size := HeaderSize
	for i, f := range files {
		if err := validateFile(f, limits); err != nil {
			return nil, fmt.Errorf("file %d: %w", i, err)
		}
		total += len(f.Content)
		size += recordOverhead + len(f.Name) + len(f.Content) + len(f.Language)
	}
	if total > limits.MaxTotalSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, total, limits.MaxTotalSize)
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	buf[4] = FormatVersion
	binary.LittleEndian.PutUint16(buf[5:7], uint16(len(files)))
	binary.LittleEndian.PutUint32(buf[7:11], uint32(total))

	off := HeaderSize
	for _, f := range files {
		binary.LittleEndian.PutUint16(buf[off:], uint16(len(f.Name)))
		off += 2
		off += copy(buf[off:], f.Name)

		binary.LittleEndian.PutUint32(buf[off:], uint32(len(f.Content)))
		off += 4
		off += copy(buf[off:], f.Content)

		buf[off] = uint8(len(f.Language))
		off++
		off += copy(buf[off:], f.Language)
	}

	return buf, nil
}

func validateFile(f File, limits Limits) error {
	switch {
	case len(f.Name) == 0:
		return ErrEmptyFilename
	case len(f.Name) > limits.MaxFilenameLength:
		return fmt.Errorf("%w: %q is %d bytes, max %d", ErrFilenameTooLong, truncateName(f.Name), len(f.Name), limits.MaxFilenameLength)
	case len(f.Content) > limits.MaxFileSize:
		return fmt.Errorf("%w: %q is %d bytes, max %d", ErrFileTooLarge, f.Name, len(f.Content), limits.MaxFileSize)
	case len(f.Language) > limits.MaxLanguageLength:
		return fmt.Errorf("%w: %d bytes, max %d", ErrLanguageTooLong, len(f.Language), limits.MaxLanguageLength)
	}
	return nil
}

func truncateName(name string) string {
	if len(name) <= 32 {
		return name
	}
	return name[:32] + "..."
}

// Decode unpacks a container. Declared lengths are checked against limits
// and against the remaining buffer before any slice is taken. Bytes after
// the last record are ignored; ValidateBinaryFormat rejects them.
func Decode(data []byte, limits Limits) ([]File, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	h, err := readHeader(data, limits)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, h.FileCount)
	_, err = walkRecords(data, h, limits, func(name, content, lang []byte) {
		files = append(files, File{
			Name:     string(name),
			Content:  string(content),
			Language: string(lang),
		})
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// ValidateBinaryFormat reports whether data is a structurally valid
// container: same checks as Decode, no content copies, and no trailing bytes.
func ValidateBinaryFormat(data []byte, limits Limits) bool {
	return CheckBinaryFormat(data, limits) == nil
}

// CheckBinaryFormat is ValidateBinaryFormat with the reason. Bytes after the
// last record yield ErrTrailingData.
func CheckBinaryFormat(data []byte, limits Limits) error {
	if err := limits.Validate(); err != nil {
		return err
	}
	h, err := readHeader(data, limits)
	if err != nil {
		return err
	}
	end, err := walkRecords(data, h, limits, nil)
	if err != nil {
		return err
	}
	if end != len(data) {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, len(data)-end)
	}
	return nil
}

// ExtractHeader reads only the fixed header. The version is returned as
// stored so callers can report unsupported containers precisely.
func ExtractHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrBufferTooSmall, len(data))
	}
	h := Header{
		Magic:     binary.LittleEndian.Uint32(data[0:4]),
		Version:   data[4],
		FileCount: binary.LittleEndian.Uint16(data[5:7]),
		TotalSize: binary.LittleEndian.Uint32(data[7:11]),
	}
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, h.Magic)
	}
	return h, nil
}

func readHeader(data []byte, limits Limits) (Header, error) {
	h, err := ExtractHeader(data)
	if err != nil {
		return Header{}, err
	}
	if h.Version != FormatVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.FileCount == 0 || int(h.FileCount) > limits.MaxFileCount {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidFileCount, h.FileCount)
	}
	if uint64(h.TotalSize) > uint64(limits.MaxTotalSize) {
		return Header{}, fmt.Errorf("%w: header declares %d bytes, max %d", ErrInvalidTotalSize, h.TotalSize, limits.MaxTotalSize)
	}
	return h, nil
}

// walkRecords iterates over h.FileCount records, calling visit (if non-nil)
// with sub-slices of data. It returns the offset just past the last record.
func walkRecords(data []byte, h Header, limits Limits, visit func(name, content, lang []byte)) (int, error) {
	r := reader{buf: data, off: HeaderSize}
	var total uint64

	for i := 0; i < int(h.FileCount); i++ {
		nameLen, err := r.u16()
		if err != nil {
			return 0, fmt.Errorf("record %d name length: %w", i, err)
		}
		if nameLen == 0 {
			return 0, fmt.Errorf("%w: record %d", ErrEmptyRecordName, i)
		}
		if int(nameLen) > limits.MaxFilenameLength {
			return 0, fmt.Errorf("%w: record %d name is %d bytes", ErrCorruptRecord, i, nameLen)
		}
		name, err := r.bytes(int(nameLen))
		if err != nil {
			return 0, fmt.Errorf("record %d name: %w", i, err)
		}

		contentLen, err := r.u32()
		if err != nil {
			return 0, fmt.Errorf("record %d content length: %w", i, err)
		}
		if uint64(contentLen) > uint64(limits.MaxFileSize) {
			return 0, fmt.Errorf("%w: record %d content is %d bytes", ErrCorruptRecord, i, contentLen)
		}
		content, err := r.bytes(int(contentLen))
		if err != nil {
			return 0, fmt.Errorf("record %d content: %w", i, err)
		}
		total += uint64(contentLen)
		if total > uint64(h.TotalSize) {
			return 0, fmt.Errorf("%w: records exceed declared %d bytes", ErrSizeMismatch, h.TotalSize)
		}

		langLen, err := r.u8()
		if err != nil {
			return 0, fmt.Errorf("record %d language length: %w", i, err)
		}
		if int(langLen) > limits.MaxLanguageLength {
			return 0, fmt.Errorf("%w: record %d language is %d bytes", ErrCorruptRecord, i, langLen)
		}
		lang, err := r.bytes(int(langLen))
		if err != nil {
			return 0, fmt.Errorf("record %d language: %w", i, err)
		}

		if visit != nil {
			visit(name, content, lang)
		}
	}

	if total != uint64(h.TotalSize) {
		return 0, fmt.Errorf("%w: records hold %d bytes, header declares %d", ErrSizeMismatch, total, h.TotalSize)
	}

	return r.off, nil
}

// reader is a bounds-checked cursor over a byte slice.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
