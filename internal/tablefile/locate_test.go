package tablefile

import (
	"errors"
	"strings"
	"testing"
)

type fakeStream struct {
	name string
	data []byte
}

func walkFakes(streams []fakeStream) func(visitFunc) error {
	return func(visit visitFunc) error {
		for _, s := range streams {
			if visit(s.name, s.data) {
				return nil
			}
		}
		return nil
	}
}

func TestLocateInStreamsSkipsStructuralStreams(t *testing.T) {
	streams := []fakeStream{
		{name: "GameStg/Version", data: []byte(scriptBody())},
		{name: "GameStg/GameStructure", data: []byte(scriptBody())},
		{name: "GameStg/GameData", data: []byte("\x00\x00" + scriptBody() + "ENDB\x00")},
	}
	script, err := locateInStreams(walkFakes(streams), DefaultOptions())
	if err != nil {
		t.Fatalf("locateInStreams returned error: %v", err)
	}
	if script.Stream != "GameStg/GameData" {
		t.Fatalf("expected GameData stream, got %q", script.Stream)
	}
	if !strings.HasPrefix(script.Text(), "Option Explicit") {
		t.Fatalf("unexpected script head %q", script.Text()[:20])
	}
	if strings.Contains(script.Text(), "ENDB") {
		t.Fatal("terminator must be stripped")
	}
}

func TestLocateInStreamsFirstAcceptedStreamWins(t *testing.T) {
	streams := []fakeStream{
		{name: "GameStg/Image0", data: append([]byte("Option"), make([]byte, 400)...)},
		{name: "GameStg/GameData", data: []byte(scriptBody())},
		{name: "GameStg/Other", data: []byte("Const other = 1\r\n" + strings.Repeat("' pad\r\n", 50))},
	}
	script, err := locateInStreams(walkFakes(streams), DefaultOptions())
	if err != nil {
		t.Fatalf("locateInStreams returned error: %v", err)
	}
	if script.Stream != "GameStg/GameData" {
		t.Fatalf("expected GameData stream, got %q", script.Stream)
	}
}

func TestLocateInStreamsNoMarker(t *testing.T) {
	streams := []fakeStream{{name: "GameStg/Sound0", data: []byte("RIFF....WAVE")}}
	_, err := locateInStreams(walkFakes(streams), DefaultOptions())
	if !errors.Is(err, ErrNoMarker) {
		t.Fatalf("expected ErrNoMarker, got %v", err)
	}
	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected ExtractionError, got %T", err)
	}
}

func TestLocateInStreamsBelowPrintable(t *testing.T) {
	streams := []fakeStream{{name: "GameStg/Image1", data: append([]byte("Option"), make([]byte, 400)...)}}
	_, err := locateInStreams(walkFakes(streams), DefaultOptions())
	if !errors.Is(err, ErrBelowPrintable) {
		t.Fatalf("expected ErrBelowPrintable, got %v", err)
	}
	if !strings.Contains(err.Error(), "GameStg/Image1") {
		t.Fatalf("expected stream name in error, got %q", err.Error())
	}
}

// testdata/table.vpx holds a GameStg storage with an empty stream, a Version
// stream carrying a marker, and a GameData stream with a length-prefixed CODE
// record followed by ENDB.
const fixtureTable = "testdata/table.vpx"

func TestWalkCompoundVisitsNonEmptyStreams(t *testing.T) {
	data, kind, err := ReadFile(fixtureTable)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if kind != KindCompound {
		t.Fatalf("kind = %v, want %v", kind, KindCompound)
	}

	var names []string
	sizes := map[string]int{}
	err = walkCompound(data, func(name string, stream []byte) bool {
		names = append(names, name)
		sizes[name] = len(stream)
		return false
	})
	if err != nil {
		t.Fatalf("walkCompound returned error: %v", err)
	}
	want := []string{"GameStg/Version", "GameStg/GameData"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("visited %v, want %v", names, want)
	}
	if sizes["GameStg/Version"] != 4096 {
		t.Fatalf("Version size = %d", sizes["GameStg/Version"])
	}
}

func TestLocateCompoundDocument(t *testing.T) {
	data, kind, err := ReadFile(fixtureTable)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	script, err := Locate(data, kind, DefaultOptions())
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if script.Stream != "GameStg/GameData" {
		t.Fatalf("stream = %q, want GameStg/GameData", script.Stream)
	}
	text := script.Text()
	if !strings.HasPrefix(text, "' Header comment line\r\nOption Explicit\r\n") {
		t.Fatalf("unexpected script head %q", text[:40])
	}
	if !strings.HasSuffix(text, "End Sub") {
		t.Fatalf("unexpected script tail %q", text[len(text)-20:])
	}
	for _, unwanted := range []string{"ENDB", "fromVersion", "CODE"} {
		if strings.Contains(text, unwanted) {
			t.Fatalf("script must not contain %q", unwanted)
		}
	}
	if script.Len() != 4313 {
		t.Fatalf("script length = %d, want 4313", script.Len())
	}
}

func TestLocateCompoundRejectsGarbage(t *testing.T) {
	_, err := Locate([]byte("definitely not a compound document"), KindCompound, Options{})
	if !errors.Is(err, ErrContainer) {
		t.Fatalf("expected ErrContainer, got %v", err)
	}
}

func TestLocatePlainText(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		want     []byte
		encoding Encoding
	}{
		{
			name:     "no bom",
			data:     []byte("Option Explicit\r\nDim \xe9"),
			want:     []byte("Option Explicit\r\nDim \xe9"),
			encoding: EncodingLatin1,
		},
		{
			name:     "utf8 bom",
			data:     []byte("\xEF\xBB\xBFDim caf\xc3\xa9 ' \xe2\x82\xac"),
			want:     []byte("Dim caf\xe9 ' ?"),
			encoding: EncodingUTF8BOM,
		},
		{
			name:     "utf16le bom",
			data:     []byte{0xFF, 0xFE, 'D', 0, 'i', 0, 'm', 0, ' ', 0, 0xE9, 0},
			want:     []byte("Dim \xe9"),
			encoding: EncodingUTF16LE,
		},
		{
			name:     "utf16be bom",
			data:     []byte{0xFE, 0xFF, 0, 'D', 0, 'i', 0, 'm', 0x20, 0xAC},
			want:     []byte("Dim?"),
			encoding: EncodingUTF16BE,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := Locate(tt.data, KindPlainText, Options{})
			if err != nil {
				t.Fatalf("Locate returned error: %v", err)
			}
			if string(script.Data) != string(tt.want) {
				t.Fatalf("Data = %q, want %q", script.Data, tt.want)
			}
			if script.Encoding != tt.encoding {
				t.Fatalf("Encoding = %q, want %q", script.Encoding, tt.encoding)
			}
		})
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		file string
		head []byte
		want Kind
	}{
		{"magic wins", "table.vbs", compoundMagic, KindCompound},
		{"vbs extension", "table.vbs", []byte("Opti"), KindPlainText},
		{"vpx extension", "Table.VPX", []byte{0x00}, KindCompound},
		{"unknown text", "script", []byte("Option"), KindPlainText},
		{"empty", "mystery", nil, KindCompound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKind(tt.file, tt.head); got != tt.want {
				t.Fatalf("DetectKind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScriptCleanAndLines(t *testing.T) {
	script := &Script{Data: []byte("Option Explicit\r\r\nDim x\rx = 1\n\n")}
	if got := script.Clean(); got != "Option Explicit\nDim x\nx = 1" {
		t.Fatalf("Clean = %q", got)
	}
	if lines := script.Lines(); len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var empty *Script
	if empty.Text() != "" || empty.Len() != 0 || empty.Lines() != nil {
		t.Fatal("nil script must behave as empty")
	}
}

func TestScriptTextDecodesLatin1(t *testing.T) {
	script := &Script{Data: []byte("caf\xe9")}
	if got := script.Text(); got != "café" {
		t.Fatalf("Text = %q", got)
	}
}
