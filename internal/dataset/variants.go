package dataset

import (
	"fmt"
	"strings"
)

// Tone is a semantic colour token shared by every lens.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneMarcus
	ToneDemartini
	ToneConvergence
	ToneInsight
)

// Hex returns the display colour of the tone.
func (t Tone) Hex() string {
	switch t {
	case ToneMarcus:
		return "#f59e0b"
	case ToneDemartini:
		return "#14b8a6"
	case ToneConvergence:
		return "#8b5cf6"
	case ToneInsight:
		return "#eab308"
	}
	return "#6b7280"
}

func (t Tone) String() string {
	switch t {
	case ToneMarcus:
		return "marcus"
	case ToneDemartini:
		return "demartini"
	case ToneConvergence:
		return "convergence"
	case ToneInsight:
		return "insight"
	case ToneNeutral:
		return "neutral"
	}
	return fmt.Sprintf("tone(%d)", int(t))
}

// MarshalText encodes the tone by name.
func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Speaker identifies who produced a segment, claim or exchange.
type Speaker int

const (
	SpeakerUnknown Speaker = iota
	SpeakerMarcus
	SpeakerDemartini
	SpeakerMarcusSteelmanned
	SpeakerDemartiniSteelmanned
	SpeakerSynthesis
)

// Speakers lists every known speaker in declaration order.
var Speakers = []Speaker{
	SpeakerUnknown,
	SpeakerMarcus,
	SpeakerDemartini,
	SpeakerMarcusSteelmanned,
	SpeakerDemartiniSteelmanned,
	SpeakerSynthesis,
}

// ParseSpeaker maps a fixture tag to a Speaker. An empty tag is SpeakerUnknown.
func ParseSpeaker(s string) (Speaker, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return SpeakerUnknown, nil
	case "marcus":
		return SpeakerMarcus, nil
	case "demartini":
		return SpeakerDemartini, nil
	case "marcus_steelmanned":
		return SpeakerMarcusSteelmanned, nil
	case "demartini_steelmanned":
		return SpeakerDemartiniSteelmanned, nil
	case "synthesis":
		return SpeakerSynthesis, nil
	}
	return SpeakerUnknown, fmt.Errorf("unknown speaker %q", s)
}

func (s Speaker) String() string {
	switch s {
	case SpeakerUnknown:
		return "unknown"
	case SpeakerMarcus:
		return "marcus"
	case SpeakerDemartini:
		return "demartini"
	case SpeakerMarcusSteelmanned:
		return "marcus_steelmanned"
	case SpeakerDemartiniSteelmanned:
		return "demartini_steelmanned"
	case SpeakerSynthesis:
		return "synthesis"
	}
	return fmt.Sprintf("speaker(%d)", int(s))
}

// Name is the human-readable speaker name.
func (s Speaker) Name() string {
	switch s {
	case SpeakerMarcus:
		return "Aubrey Marcus"
	case SpeakerDemartini:
		return "Dr. John Demartini"
	case SpeakerMarcusSteelmanned:
		return "Marcus (Steel-Manned)"
	case SpeakerDemartiniSteelmanned:
		return "Demartini (Steel-Manned)"
	case SpeakerSynthesis:
		return "Synthesis"
	case SpeakerUnknown:
		return "unknown"
	}
	return s.String()
}

// Tone is the speaker's colour token. Steel-manned voices share the tone of
// the speaker they argue for.
func (s Speaker) Tone() Tone {
	switch s {
	case SpeakerMarcus, SpeakerMarcusSteelmanned:
		return ToneMarcus
	case SpeakerDemartini, SpeakerDemartiniSteelmanned:
		return ToneDemartini
	case SpeakerSynthesis:
		return ToneConvergence
	case SpeakerUnknown:
		return ToneNeutral
	}
	return ToneNeutral
}

// MarshalText implements encoding.TextMarshaler.
func (s Speaker) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognised tags fail.
func (s *Speaker) UnmarshalText(b []byte) error {
	v, err := ParseSpeaker(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ClaimType is the philosophical category of a claim.
type ClaimType int

const (
	ClaimOntological ClaimType = iota
	ClaimEpistemological
	ClaimEthical
	ClaimMethodological
)

// ParseClaimType maps a fixture tag to a ClaimType.
func ParseClaimType(s string) (ClaimType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ontological":
		return ClaimOntological, nil
	case "epistemological":
		return ClaimEpistemological, nil
	case "ethical":
		return ClaimEthical, nil
	case "methodological":
		return ClaimMethodological, nil
	}
	return 0, fmt.Errorf("unknown claim type %q", s)
}

func (c ClaimType) String() string {
	switch c {
	case ClaimOntological:
		return "ontological"
	case ClaimEpistemological:
		return "epistemological"
	case ClaimEthical:
		return "ethical"
	case ClaimMethodological:
		return "methodological"
	}
	return fmt.Sprintf("claim_type(%d)", int(c))
}

// Tone is the badge colour of the claim type.
func (c ClaimType) Tone() Tone {
	switch c {
	case ClaimOntological:
		return ToneConvergence
	case ClaimEpistemological:
		return ToneDemartini
	case ClaimEthical:
		return ToneMarcus
	case ClaimMethodological:
		return ToneInsight
	}
	return ToneNeutral
}

// MarshalText implements encoding.TextMarshaler.
func (c ClaimType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ClaimType) UnmarshalText(b []byte) error {
	v, err := ParseClaimType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MoodTone groups the free-form phase moods of the flow lens.
type MoodTone int

const (
	MoodNeutral MoodTone = iota
	MoodTension
	MoodConstructive
	MoodReflective
	MoodTeaching
)

// ToneOfMood classifies a phase mood. Moods outside the known groups are neutral.
func ToneOfMood(mood string) MoodTone {
	switch strings.ToLower(strings.TrimSpace(mood)) {
	case "contentious", "heated", "crisis", "rupture", "confrontational":
		return MoodTension
	case "seeking_common_ground", "constructive":
		return MoodConstructive
	case "philosophical", "metaphysical", "reflective", "theological":
		return MoodReflective
	case "teaching", "testimony":
		return MoodTeaching
	}
	return MoodNeutral
}

func (m MoodTone) String() string {
	switch m {
	case MoodTension:
		return "tension"
	case MoodConstructive:
		return "constructive"
	case MoodReflective:
		return "reflective"
	case MoodTeaching:
		return "teaching"
	case MoodNeutral:
		return "neutral"
	}
	return fmt.Sprintf("mood(%d)", int(m))
}

// Tone is the border colour used for phases of this mood.
func (m MoodTone) Tone() Tone {
	switch m {
	case MoodTension:
		return ToneMarcus
	case MoodConstructive:
		return ToneConvergence
	case MoodReflective:
		return ToneDemartini
	case MoodTeaching:
		return ToneInsight
	case MoodNeutral:
		return ToneNeutral
	}
	return ToneNeutral
}

// MarshalText implements encoding.TextMarshaler.
func (m MoodTone) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// GapSeverity buckets the distance between two positions on a dimension.
type GapSeverity int

const (
	GapLow GapSeverity = iota
	GapMedium
	GapHigh
)

// SeverityOfGap buckets a gap expressed in percent (0-100).
func SeverityOfGap(percent float64) GapSeverity {
	switch {
	case percent > 50:
		return GapHigh
	case percent > 30:
		return GapMedium
	default:
		return GapLow
	}
}

func (g GapSeverity) String() string {
	switch g {
	case GapLow:
		return "low"
	case GapMedium:
		return "medium"
	case GapHigh:
		return "high"
	}
	return fmt.Sprintf("gap(%d)", int(g))
}

// Tone maps a wide gap to a warning colour and a narrow one to convergence.
func (g GapSeverity) Tone() Tone {
	switch g {
	case GapHigh:
		return ToneMarcus
	case GapMedium:
		return ToneInsight
	case GapLow:
		return ToneConvergence
	}
	return ToneNeutral
}

// MarshalText implements encoding.TextMarshaler.
func (g GapSeverity) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// Bridging is the judged potential of closing a worldview gap.
type Bridging int

const (
	BridgingLow Bridging = iota
	BridgingMedium
	BridgingHigh
)

// ParseBridging maps a fixture tag to a Bridging value.
func ParseBridging(s string) (Bridging, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return BridgingLow, nil
	case "medium":
		return BridgingMedium, nil
	case "high":
		return BridgingHigh, nil
	}
	return 0, fmt.Errorf("unknown bridging potential %q", s)
}

func (b Bridging) String() string {
	switch b {
	case BridgingLow:
		return "low"
	case BridgingMedium:
		return "medium"
	case BridgingHigh:
		return "high"
	}
	return fmt.Sprintf("bridging(%d)", int(b))
}

// Tone inverts GapSeverity: high bridging potential is good news.
func (b Bridging) Tone() Tone {
	switch b {
	case BridgingHigh:
		return ToneConvergence
	case BridgingMedium:
		return ToneInsight
	case BridgingLow:
		return ToneMarcus
	}
	return ToneNeutral
}

// MarshalText implements encoding.TextMarshaler.
func (b Bridging) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bridging) UnmarshalText(p []byte) error {
	v, err := ParseBridging(string(p))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
