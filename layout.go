package flo

import "github.com/floaudio/flo/frame"

// layout locates every chunk in a flo file relative to its start, given
// a parsed header: magic, header, TOC, DATA, extra, and metadata are
// laid out back to back in that order (spec §3.1).
type layout struct {
	tocStart, tocEnd   int
	dataStart, dataEnd int
	extraStart, extraEnd int
	metaStart, metaEnd int
}

func computeLayout(h *frame.Header) layout {
	headerEnd := 4 + frame.Size
	var l layout
	l.tocStart = headerEnd
	l.tocEnd = l.tocStart + int(h.TocSize)
	l.dataStart = l.tocEnd
	l.dataEnd = l.dataStart + int(h.DataSize)
	l.extraStart = l.dataEnd
	l.extraEnd = l.extraStart + int(h.ExtraSize)
	l.metaStart = l.extraEnd
	l.metaEnd = l.metaStart + int(h.MetaSize)
	return l
}

// totalSize returns the number of bytes a file following h's chunk sizes
// must be at minimum.
func (l layout) totalSize() int { return l.metaEnd }
