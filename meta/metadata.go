// Package meta implements FloMetadata (C10): the container's optional
// metadata blob, MessagePack-encoded with named fields so that readers
// written against an older field set can still parse newer files (spec
// §3.1, §4.8).
package meta

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// PictureType names the role a Picture plays, mirroring the conventional
// ID3/Vorbis comment picture type vocabulary.
type PictureType uint8

// Picture types.
const (
	PictureOther PictureType = iota
	PictureFrontCover
	PictureBackCover
	PictureArtist
	PicturePerformance
)

// Picture is an embedded image (cover art, artist photo, ...).
type Picture struct {
	Type        PictureType `msgpack:"type"`
	MimeType    string      `msgpack:"mime_type"`
	Description string      `msgpack:"description,omitempty"`
	Data        []byte      `msgpack:"data"`
}

// Comment is a free-text comment, optionally tagged by language.
type Comment struct {
	Language string `msgpack:"language,omitempty"`
	Text     string `msgpack:"text"`
}

// SyncedLyricsLine is one timestamped lyric line.
type SyncedLyricsLine struct {
	TimestampMs uint32 `msgpack:"timestamp_ms"`
	Text        string `msgpack:"text"`
}

// SyncedLyrics is a full time-synchronized lyric track, optionally tagged
// by language.
type SyncedLyrics struct {
	Language string             `msgpack:"language,omitempty"`
	Lines    []SyncedLyricsLine `msgpack:"lines"`
}

// SectionType names the musical role of a SectionMarker.
type SectionType uint8

// Section types.
const (
	SectionIntro SectionType = iota
	SectionVerse
	SectionChorus
	SectionBridge
	SectionOutro
	SectionOther
)

// SectionMarker marks a structural boundary in the track (verse, chorus,
// and so on), at a point in time.
type SectionMarker struct {
	TimestampMs uint32      `msgpack:"timestamp_ms"`
	Type        SectionType `msgpack:"type"`
	Label       string      `msgpack:"label,omitempty"`
}

// BpmChange marks a tempo change at a point in time, for tracks whose
// tempo is not constant.
type BpmChange struct {
	TimestampMs uint32  `msgpack:"timestamp_ms"`
	Bpm         float32 `msgpack:"bpm"`
}

// KeyChange marks a musical key change at a point in time.
type KeyChange struct {
	TimestampMs uint32 `msgpack:"timestamp_ms"`
	Key         string `msgpack:"key"`
}

// WaveformData is a pre-computed low-resolution amplitude envelope,
// suitable for drawing a waveform view without decoding the whole file.
type WaveformData struct {
	SamplesPerPoint uint32    `msgpack:"samples_per_point"`
	Peaks           []float32 `msgpack:"peaks"`
	Rms             []float32 `msgpack:"rms,omitempty"`
}

// CollaborationCredit attributes a named role (producer, mixer, featured
// artist, ...) to a person or group.
type CollaborationCredit struct {
	Role string `msgpack:"role"`
	Name string `msgpack:"name"`
}

// CreatorNote is a free-form annotation left by whoever produced the
// file, optionally scoped to a point in time.
type CreatorNote struct {
	TimestampMs *uint32 `msgpack:"timestamp_ms,omitempty"`
	Text        string  `msgpack:"text"`
}

// LoudnessPoint is one sample of a time-varying loudness analysis,
// carried here only if the caller chooses to persist the curve alongside
// the audio; analysis.ComputeLoudness neither produces nor reads it.
type LoudnessPoint struct {
	TimestampMs uint32  `msgpack:"timestamp_ms"`
	LoudnessLu  float32 `msgpack:"loudness_lu"`
}

// FloMetadata is the full named-field metadata record (spec §3.1, §4.8,
// expanded per original_source/'s field set). Every field is optional;
// an absent field round trips as its Go zero value and is omitted from
// the encoded bytes via omitempty, so old and new encoders/decoders stay
// forward- and backward-compatible as fields are added over time.
type FloMetadata struct {
	Title       string `msgpack:"title,omitempty"`
	Subtitle    string `msgpack:"subtitle,omitempty"`
	Album       string `msgpack:"album,omitempty"`
	TrackNumber uint32 `msgpack:"track_number,omitempty"`
	TrackTotal  uint32 `msgpack:"track_total,omitempty"`
	DiscNumber  uint32 `msgpack:"disc_number,omitempty"`
	DiscTotal   uint32 `msgpack:"disc_total,omitempty"`
	Isrc        string `msgpack:"isrc,omitempty"`

	Artist      string `msgpack:"artist,omitempty"`
	AlbumArtist string `msgpack:"album_artist,omitempty"`
	Composer    string `msgpack:"composer,omitempty"`
	Conductor   string `msgpack:"conductor,omitempty"`
	Lyricist    string `msgpack:"lyricist,omitempty"`
	Remixer     string `msgpack:"remixer,omitempty"`

	Genre    string  `msgpack:"genre,omitempty"`
	Mood     string  `msgpack:"mood,omitempty"`
	Year     uint32  `msgpack:"year,omitempty"`
	Bpm      float32 `msgpack:"bpm,omitempty"`
	Key      string  `msgpack:"key,omitempty"`
	Language string  `msgpack:"language,omitempty"`

	IntegratedLoudnessLufs *float32 `msgpack:"integrated_loudness_lufs,omitempty"`
	LoudnessRangeLu        *float32 `msgpack:"loudness_range_lu,omitempty"`
	TruePeakDbtp           *float32 `msgpack:"true_peak_dbtp,omitempty"`

	Pictures             []Picture             `msgpack:"pictures,omitempty"`
	Comments             []Comment             `msgpack:"comments,omitempty"`
	SyncedLyrics         []SyncedLyrics        `msgpack:"synced_lyrics,omitempty"`
	SectionMarkers       []SectionMarker       `msgpack:"section_markers,omitempty"`
	BpmMap               []BpmChange           `msgpack:"bpm_map,omitempty"`
	KeyChanges           []KeyChange           `msgpack:"key_changes,omitempty"`
	WaveformData         *WaveformData         `msgpack:"waveform_data,omitempty"`
	CollaborationCredits []CollaborationCredit `msgpack:"collaboration_credits,omitempty"`
	CreatorNotes         []CreatorNote         `msgpack:"creator_notes,omitempty"`
	Custom               map[string]string     `msgpack:"custom,omitempty"`

	SourceLanguage    string `msgpack:"source_language,omitempty"`
	FloEncoderVersion string `msgpack:"flo_encoder_version,omitempty"`
}

// IsEmpty reports whether m has no metadata worth encoding at all, used
// by the container writer to decide whether to emit a zero-length
// metadata blob instead of an empty MessagePack map.
func (m *FloMetadata) IsEmpty() bool {
	if m == nil {
		return true
	}
	encoded, err := m.Marshal()
	return err == nil && len(encoded) <= emptyMapSize
}

// emptyMapSize is the MessagePack encoding size of a map with no
// entries, against which IsEmpty compares a metadata record whose fields
// are all zero/omitted.
var emptyMapSize = func() int {
	b, _ := msgpack.Marshal(map[string]any{})
	return len(b)
}()

// Marshal encodes m to its MessagePack wire representation.
func (m *FloMetadata) Marshal() ([]byte, error) {
	b, err := msgpack.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "meta: marshal")
	}
	return b, nil
}

// Unmarshal decodes a MessagePack metadata blob. An empty slice decodes
// to a zero-value FloMetadata rather than an error, matching spec §4.8's
// "meta_size == 0 means no metadata" convention.
func Unmarshal(b []byte) (*FloMetadata, error) {
	m := &FloMetadata{}
	if len(b) == 0 {
		return m, nil
	}
	if err := msgpack.Unmarshal(b, m); err != nil {
		return nil, errors.Wrap(err, "meta: unmarshal")
	}
	return m, nil
}
