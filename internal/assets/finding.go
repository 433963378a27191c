package assets

// Kind names an asset category.
type Kind string

const (
	KindROM       Kind = "rom"
	KindBackglass Kind = "backglass"
	KindDMD       Kind = "dmd"
	KindAltSound  Kind = "altsound"
	KindAltColor  Kind = "altcolor"
	KindPuP       Kind = "pup"
	KindMusic     Kind = "music"
)

// Kinds lists every kind in report order.
var Kinds = []Kind{KindROM, KindBackglass, KindDMD, KindAltSound, KindAltColor, KindPuP, KindMusic}

// Label returns the display label for k.
func (k Kind) Label() string {
	switch k {
	case KindROM:
		return "ROM"
	case KindBackglass:
		return "Backglass"
	case KindDMD:
		return "UltraDMD/FlexDMD"
	case KindAltSound:
		return "AltSound"
	case KindAltColor:
		return "AltColor"
	case KindPuP:
		return "PuP-Pack"
	case KindMusic:
		return "Music"
	default:
		return string(k)
	}
}

// Finding is the outcome of one lookup. Name is what was found, or what was
// looked for when Found is false.
type Finding struct {
	Kind  Kind     `json:"kind"`
	Found bool     `json:"found"`
	Name  string   `json:"name,omitempty"`
	Path  string   `json:"path,omitempty"`
	Fuzzy bool     `json:"fuzzy,omitempty"`
	Score float64  `json:"score,omitempty"`
	Files []string `json:"files,omitempty"`
	Note  string   `json:"note,omitempty"`
}

func missing(kind Kind, name, note string) Finding {
	return Finding{Kind: kind, Name: name, Note: note}
}
