package flo

import (
	"github.com/floaudio/flo/frame"
	"github.com/floaudio/flo/meta"
)

// HasMetadata reports whether data's header declares a non-empty metadata
// chunk, without parsing it.
func HasMetadata(data []byte) (bool, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return false, err
	}
	return h.MetaSize > 0, nil
}

// GetMetadata parses and returns just the trailing metadata chunk,
// without touching the TOC or DATA (spec §4.8's get_metadata).
func GetMetadata(data []byte) (*meta.FloMetadata, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	l := computeLayout(h)
	if len(data) < l.totalSize() {
		return nil, &FormatError{Reason: "file shorter than its own header-declared chunk sizes"}
	}
	if h.MetaSize == 0 {
		return &meta.FloMetadata{}, nil
	}
	m, err := meta.Unmarshal(data[l.metaStart:l.metaEnd])
	if err != nil {
		return nil, &SerializationError{Reason: "decoding metadata blob", Err: err}
	}
	return m, nil
}

// UpdateMetadata replaces data's metadata chunk with a newly marshaled
// one, leaving the magic, header (aside from meta_size), TOC, and DATA
// chunk byte-for-byte untouched (spec §4.8's update_metadata): the CRC-32
// in the header covers only the DATA chunk, so it never needs
// recomputing for a metadata-only edit.
func UpdateMetadata(data []byte, m *meta.FloMetadata) ([]byte, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	l := computeLayout(h)
	if len(data) < l.totalSize() {
		return nil, &FormatError{Reason: "file shorter than its own header-declared chunk sizes"}
	}

	var metaBytes []byte
	if m != nil && !m.IsEmpty() {
		metaBytes, err = m.Marshal()
		if err != nil {
			return nil, &SerializationError{Reason: "encoding metadata blob", Err: err}
		}
	}

	h.MetaSize = uint64(len(metaBytes))

	out := make([]byte, 0, l.metaStart+len(metaBytes))
	out = append(out, data[:4]...)
	out = append(out, h.Marshal()...)
	out = append(out, data[4+frame.Size:l.metaStart]...)
	out = append(out, metaBytes...)
	return out, nil
}

// StripMetadata returns a copy of data with its metadata chunk removed
// entirely, equivalent to UpdateMetadata(data, nil).
func StripMetadata(data []byte) ([]byte, error) {
	return UpdateMetadata(data, nil)
}
