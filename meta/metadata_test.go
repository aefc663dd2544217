package meta

import (
	"reflect"
	"testing"
)

func TestMetadataRoundTrip(t *testing.T) {
	loudness := float32(-14.2)
	m := &FloMetadata{
		Title:       "Test Track",
		Artist:      "Test Artist",
		TrackNumber: 3,
		TrackTotal:  12,
		Genre:       "Electronic",
		Bpm:         128,

		IntegratedLoudnessLufs: &loudness,

		Pictures: []Picture{
			{Type: PictureFrontCover, MimeType: "image/jpeg", Data: []byte{0xFF, 0xD8}},
		},
		Comments: []Comment{{Language: "en", Text: "mixed in 2026"}},
		SyncedLyrics: []SyncedLyrics{{
			Language: "en",
			Lines:    []SyncedLyricsLine{{TimestampMs: 1000, Text: "first line"}},
		}},
		SectionMarkers: []SectionMarker{{TimestampMs: 0, Type: SectionIntro}},
		BpmMap:         []BpmChange{{TimestampMs: 30000, Bpm: 130}},
		KeyChanges:     []KeyChange{{TimestampMs: 60000, Key: "Am"}},
		WaveformData: &WaveformData{
			SamplesPerPoint: 1024,
			Peaks:           []float32{0.1, 0.5, 0.9},
		},
		CollaborationCredits: []CollaborationCredit{{Role: "mixing", Name: "Someone"}},
		CreatorNotes:         []CreatorNote{{Text: "mastered at -9 LUFS"}},
		Custom:               map[string]string{"mood_tag": "energetic"},
	}

	encoded, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(encoded)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, m)
	}
}

func TestUnmarshalEmptyBlob(t *testing.T) {
	m, err := Unmarshal(nil)
	if err != nil {
		t.Fatalf("Unmarshal(nil): %v", err)
	}
	if !m.IsEmpty() {
		t.Fatal("metadata decoded from an empty blob should be empty")
	}
}

func TestIsEmptyDetectsPopulatedMetadata(t *testing.T) {
	m := &FloMetadata{Title: "Something"}
	if m.IsEmpty() {
		t.Fatal("metadata with a title should not be reported empty")
	}
}

func TestNilMetadataIsEmpty(t *testing.T) {
	var m *FloMetadata
	if !m.IsEmpty() {
		t.Fatal("nil *FloMetadata should be empty")
	}
}
