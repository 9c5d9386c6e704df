package dataset

import (
	"fmt"
	"math"
)

// Fixture file names under the data directory.
const (
	FileManifest  = "manifest.json"
	FileLandscape = "landscape.json"
	FileClaims    = "claims.json"
	FileFlow      = "flow.json"
	FileOntology  = "ontology.json"
	FileDialogue  = "dialogue.json"
)

// Files lists every fixture the application reads.
var Files = []string{FileManifest, FileLandscape, FileClaims, FileFlow, FileOntology, FileDialogue}

// IsFile reports whether name is one of the known fixture files.
func IsFile(name string) bool {
	for _, f := range Files {
		if f == name {
			return true
		}
	}
	return false
}

// Lens is one of the five views over the debate.
type Lens string

const (
	LensLandscape  Lens = "landscape"
	LensClaims     Lens = "claims"
	LensFlow       Lens = "flow"
	LensWorldviews Lens = "worldviews"
	LensArena      Lens = "arena"
)

// Lenses lists the lenses in navigation order.
var Lenses = []Lens{LensLandscape, LensClaims, LensFlow, LensWorldviews, LensArena}

// ParseLens validates a lens name.
func ParseLens(s string) (Lens, error) {
	switch l := Lens(s); l {
	case LensLandscape, LensClaims, LensFlow, LensWorldviews, LensArena:
		return l, nil
	}
	return "", fmt.Errorf("unknown lens %q", s)
}

// File is the fixture the lens renders.
func (l Lens) File() string {
	switch l {
	case LensLandscape:
		return FileLandscape
	case LensClaims:
		return FileClaims
	case LensFlow:
		return FileFlow
	case LensWorldviews:
		return FileOntology
	case LensArena:
		return FileDialogue
	}
	return ""
}

// Title is the display name of the lens.
func (l Lens) Title() string {
	switch l {
	case LensLandscape:
		return "Semantic Landscape"
	case LensClaims:
		return "Claim Atlas"
	case LensFlow:
		return "Dialectical Flow"
	case LensWorldviews:
		return "Worldview Map"
	case LensArena:
		return "Steel Man Arena"
	}
	return string(l)
}

// FormatTime renders seconds as m:ss. Negative and non-finite inputs render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", mins, secs)
}
