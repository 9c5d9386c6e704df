package dataset

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Vec3 is a point in the 3D semantic space.
type Vec3 [3]float64

// ClusterID accepts either a JSON string or a JSON number. Older fixtures
// number clusters; claim-based fixtures use claim ids.
type ClusterID string

// UnmarshalJSON implements json.Unmarshaler.
func (c *ClusterID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ClusterID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = ClusterID(n.String())
	return nil
}

// LandscapePoint is one conversational segment positioned in 3D space.
type LandscapePoint struct {
	ID                int            `json:"id"`
	X                 float64        `json:"x"`
	Y                 float64        `json:"y"`
	Z                 float64        `json:"z"`
	Speaker           Speaker        `json:"speaker"`
	Speakers          []string       `json:"speakers,omitempty"`
	Text              string         `json:"text"`
	FullText          string         `json:"full_text,omitempty"`
	Time              float64        `json:"time"`
	TimeLabel         string         `json:"time_label,omitempty"`
	TimeRange         string         `json:"time_range,omitempty"`
	Duration          float64        `json:"duration,omitempty"`
	Tokens            int            `json:"tokens,omitempty"`
	ClusterID         ClusterID      `json:"cluster_id,omitempty"`
	ClusterSimilarity float64        `json:"cluster_similarity,omitempty"`
	RelatedClaims     []RelatedClaim `json:"related_claims,omitempty"`

	// Filled by NormalizeLandscape.
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Cluster   int     `json:"cluster"`
}

// RelatedClaim links a point to a claim by embedding similarity.
type RelatedClaim struct {
	ClaimID    string  `json:"claim_id"`
	Similarity float64 `json:"similarity"`
}

// LandscapeCluster groups points around a shared claim or theme.
type LandscapeCluster struct {
	ID              ClusterID `json:"id"`
	Centroid        Vec3      `json:"centroid"`
	Label           string    `json:"label"`
	FullClaim       string    `json:"full_claim,omitempty"`
	Speaker         string    `json:"speaker,omitempty"`
	ClaimType       string    `json:"claim_type,omitempty"`
	ChunkIDs        []int     `json:"chunk_ids,omitempty"`
	ChunkCount      int       `json:"chunk_count,omitempty"`
	AvgSimilarity   float64   `json:"avg_similarity,omitempty"`
	RelatedConcepts []string  `json:"related_concepts,omitempty"`
	Count           int       `json:"count,omitempty"`
	Size            int       `json:"size,omitempty"`
	DominantSpeaker string    `json:"dominant_speaker,omitempty"`
}

// ClaimLandmark pins a claim into the 3D space.
type ClaimLandmark struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	ChunkCount int     `json:"chunk_count"`
}

// LandscapeMetadata carries the counts and pipeline parameters. Counts
// appear under either num_* or n_* depending on the pipeline version.
type LandscapeMetadata struct {
	Version        string          `json:"version,omitempty"`
	NumPoints      int             `json:"num_points,omitempty"`
	NPoints        int             `json:"n_points"`
	NumClusters    int             `json:"num_clusters,omitempty"`
	NClusters      int             `json:"n_clusters"`
	NumClaims      int             `json:"num_claims,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
	UMAPParams     *UMAPParams     `json:"umap_params,omitempty"`
	EmbeddingModel string          `json:"embedding_model,omitempty"`
	Dimensions     int             `json:"dimensions,omitempty"`
	Chunking       json.RawMessage `json:"chunking,omitempty"`
	Statistics     json.RawMessage `json:"statistics,omitempty"`
}

// UMAPParams are the projection parameters used upstream.
type UMAPParams struct {
	NNeighbors int     `json:"n_neighbors"`
	MinDist    float64 `json:"min_dist"`
}

// Trajectories are per-speaker polylines through the space.
type Trajectories struct {
	Marcus    [][]float64 `json:"marcus"`
	Demartini [][]float64 `json:"demartini"`
	RawPoints [][]float64 `json:"raw_points"`
}

// SpeakerCentroids are the mean positions of each speaker.
type SpeakerCentroids struct {
	Marcus    Vec3 `json:"marcus"`
	Demartini Vec3 `json:"demartini"`
}

// Landscape is the semantic landscape fixture.
type Landscape struct {
	Metadata         LandscapeMetadata  `json:"metadata"`
	Points           []LandscapePoint   `json:"points"`
	Clusters         []LandscapeCluster `json:"clusters"`
	ClaimLandmarks   []ClaimLandmark    `json:"claim_landmarks,omitempty"`
	Trajectories     *Trajectories      `json:"trajectories,omitempty"`
	SpeakerCentroids *SpeakerCentroids  `json:"speaker_centroids"`
}

// Claim is an extracted argumentative claim.
type Claim struct {
	ID              string    `json:"id"`
	Speaker         Speaker   `json:"speaker"`
	Text            string    `json:"text"`
	Type            ClaimType `json:"type"`
	Warrants        []string  `json:"warrants"`
	Evidence        []string  `json:"evidence"`
	Timestamp       float64   `json:"timestamp"`
	EngagementLevel string    `json:"engagement_level"`
	RelatedConcepts []string  `json:"related_concepts"`
}

// ClaimResponse is a reply by one claim to another.
type ClaimResponse struct {
	ClaimID string `json:"claim_id"`
	Type    string `json:"type"`
	Quality string `json:"quality"`
}

// ClaimEngagement lists the responses a claim received.
type ClaimEngagement struct {
	ClaimID   string          `json:"claim_id"`
	Responses []ClaimResponse `json:"responses"`
}

// ThematicCluster groups claims under a shared tension.
type ThematicCluster struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Claims      []string `json:"claims"`
	TensionType string   `json:"tension_type"`
}

// Claims is the claim atlas fixture.
type Claims struct {
	Metadata struct {
		Source      string `json:"source"`
		TotalClaims int    `json:"total_claims"`
	} `json:"metadata"`
	Claims           []Claim           `json:"claims"`
	EngagementMap    []ClaimEngagement `json:"engagement_map"`
	ThematicClusters []ThematicCluster `json:"thematic_clusters"`
}

// Responders returns, per claim id, the ids of the claims responding to it.
func (c *Claims) Responders() map[string][]string {
	out := make(map[string][]string, len(c.EngagementMap))
	for _, e := range c.EngagementMap {
		for _, r := range e.Responses {
			out[e.ClaimID] = append(out[e.ClaimID], r.ClaimID)
		}
	}
	return out
}

// InCluster returns the claims belonging to the thematic cluster, in claim order.
func (c *Claims) InCluster(tc ThematicCluster) []Claim {
	ids := make(map[string]struct{}, len(tc.Claims))
	for _, id := range tc.Claims {
		ids[id] = struct{}{}
	}
	var out []Claim
	for _, cl := range c.Claims {
		if _, ok := ids[cl.ID]; ok {
			out = append(out, cl)
		}
	}
	return out
}

// FlowPhase is a contiguous stretch of the conversation.
type FlowPhase struct {
	ID                 string   `json:"id"`
	Label              string   `json:"label"`
	StartTime          float64  `json:"start_time"`
	EndTime            float64  `json:"end_time"`
	Summary            string   `json:"summary"`
	DominantSpeaker    string   `json:"dominant_speaker"`
	EmotionalIntensity float64  `json:"emotional_intensity"`
	KeyClaims          []string `json:"key_claims"`
	Mood               string   `json:"mood"`
}

// MoodTone classifies the phase mood.
func (p FlowPhase) MoodTone() MoodTone {
	return ToneOfMood(p.Mood)
}

// InflectionPoint marks a moment where the conversation could have gone elsewhere.
type InflectionPoint struct {
	ID           string  `json:"id"`
	Timestamp    float64 `json:"timestamp"`
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	RoadNotTaken string  `json:"road_not_taken"`
	Impact       string  `json:"impact"`
}

// ArcPoint is one sample of the emotional arc.
type ArcPoint struct {
	Time      float64 `json:"time"`
	Intensity float64 `json:"intensity"`
	Note      string  `json:"note"`
}

// SpeakerDynamic describes how one speaker argued.
type SpeakerDynamic struct {
	Role            string   `json:"role"`
	Strategy        string   `json:"strategy"`
	Strengths       []string `json:"strengths"`
	Vulnerabilities []string `json:"vulnerabilities"`
}

// Flow is the dialectical flow fixture.
type Flow struct {
	Metadata struct {
		Source               string  `json:"source"`
		TotalDurationSeconds float64 `json:"total_duration_seconds"`
	} `json:"metadata"`
	Phases           []FlowPhase       `json:"phases"`
	InflectionPoints []InflectionPoint `json:"inflection_points"`
	EmotionalArc     struct {
		Description string     `json:"description"`
		Trajectory  []ArcPoint `json:"trajectory"`
	} `json:"emotional_arc"`
	SpeakerDynamics struct {
		Demartini SpeakerDynamic `json:"demartini"`
		Marcus    SpeakerDynamic `json:"marcus"`
	} `json:"speaker_dynamics"`
}

// Duration is the total length used to scale the flow timeline. It falls back
// to the end of the last phase when the metadata omits it.
func (f *Flow) Duration() float64 {
	if f.Metadata.TotalDurationSeconds > 0 {
		return f.Metadata.TotalDurationSeconds
	}
	var max float64
	for _, p := range f.Phases {
		if p.EndTime > max {
			max = p.EndTime
		}
	}
	return max
}

// SpectrumEnd labels one side of a dimension.
type SpectrumEnd struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Position is a speaker's normalised [0,1] stance on a dimension.
type Position struct {
	Position  float64  `json:"position"`
	Summary   string   `json:"summary"`
	KeyClaims []string `json:"key_claims"`
	Warrants  []string `json:"warrants"`
}

// GapAnalysis describes the distance between the two stances.
type GapAnalysis struct {
	GapType           string   `json:"gap_type"`
	GapSize           float64  `json:"gap_size"`
	BridgingPotential Bridging `json:"bridging_potential"`
	Notes             string   `json:"notes"`
}

// Dimension is one axis of the worldview comparison.
type Dimension struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Question string `json:"question"`
	Spectrum struct {
		Left  SpectrumEnd `json:"left"`
		Right SpectrumEnd `json:"right"`
	} `json:"spectrum"`
	Positions struct {
		Demartini Position `json:"demartini"`
		Marcus    Position `json:"marcus"`
	} `json:"positions"`
	GapAnalysis GapAnalysis `json:"gap_analysis"`
}

// PositionOf returns the stance of a debater. Other speakers have none.
func (d Dimension) PositionOf(s Speaker) (Position, bool) {
	switch s {
	case SpeakerMarcus:
		return d.Positions.Marcus, true
	case SpeakerDemartini:
		return d.Positions.Demartini, true
	}
	return Position{}, false
}

// Ontology is the worldview map fixture.
type Ontology struct {
	Metadata struct {
		Source      string `json:"source"`
		Methodology string `json:"methodology"`
	} `json:"metadata"`
	Dimensions []Dimension `json:"dimensions"`
	Synthesis  struct {
		CoreTension               string   `json:"core_tension"`
		DomainConfusion           string   `json:"domain_confusion"`
		BridgingInsights          []string `json:"bridging_insights"`
		IrreconcilableDifferences []string `json:"irreconcilable_differences"`
	} `json:"synthesis"`
}

// DialogueSpeaker is a voice of the steel-man arena.
type DialogueSpeaker struct {
	Name         string `json:"name"`
	Color        string `json:"color"`
	CorePosition string `json:"core_position"`
}

// Exchange is one turn within a round.
type Exchange struct {
	Speaker  Speaker  `json:"speaker"`
	Content  string   `json:"content"`
	Warrants []string `json:"warrants,omitempty"`
	Strength string   `json:"strength,omitempty"`
	Insight  string   `json:"insight,omitempty"`
}

// Round is an ordered list of exchanges on a topic.
type Round struct {
	ID        int        `json:"id"`
	Topic     string     `json:"topic"`
	Dimension string     `json:"dimension"`
	Exchanges []Exchange `json:"exchanges"`
}

// Dialogue is the steel-man arena fixture.
type Dialogue struct {
	Metadata struct {
		Type        string `json:"type"`
		PageTitle   string `json:"page_title"`
		Source      string `json:"source"`
		Description string `json:"description"`
	} `json:"metadata"`
	Speakers struct {
		DemartiniSteelmanned DialogueSpeaker `json:"demartini_steelmanned"`
		MarcusSteelmanned    DialogueSpeaker `json:"marcus_steelmanned"`
		Synthesis            DialogueSpeaker `json:"synthesis"`
	} `json:"speakers"`
	Rounds            []Round `json:"rounds"`
	GeminiIntegration struct {
		Description     string            `json:"description"`
		APIEndpoint     string            `json:"api_endpoint"`
		SystemPrompts   map[string]string `json:"system_prompts"`
		PromptTemplate  string            `json:"prompt_template"`
		ExampleTopics   []string          `json:"example_topics"`
		CommunityRounds []Round           `json:"community_rounds"`
	} `json:"gemini_integration"`
	FinalSynthesis struct {
		Title               string   `json:"title"`
		Content             string   `json:"content"`
		ConvergencePoints   []string `json:"convergence_points"`
		IrreducibleTensions []string `json:"irreducible_tensions"`
	} `json:"final_synthesis"`
}

// Round looks up a round by id, including community rounds.
func (d *Dialogue) Round(id int) (Round, bool) {
	for _, r := range d.Rounds {
		if r.ID == id {
			return r, true
		}
	}
	for _, r := range d.GeminiIntegration.CommunityRounds {
		if r.ID == id {
			return r, true
		}
	}
	return Round{}, false
}

// ManifestSpeaker is a participant listed in the manifest.
type ManifestSpeaker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Role  string `json:"role"`
}

// ManifestLens describes one lens and the fixture it reads.
type ManifestLens struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DataFile    string `json:"data_file"`
	Component   string `json:"component"`
}

// Manifest is the bundle index.
type Manifest struct {
	Version string `json:"version"`
	Source  struct {
		Title           string            `json:"title"`
		Subtitle        string            `json:"subtitle"`
		DurationSeconds float64           `json:"duration_seconds"`
		Speakers        []ManifestSpeaker `json:"speakers"`
	} `json:"source"`
	Lenses     []ManifestLens `json:"lenses"`
	Statistics struct {
		TotalSegments      int `json:"total_segments"`
		TotalChunks        int `json:"total_chunks"`
		TotalClaims        int `json:"total_claims"`
		TotalWikiEntities  int `json:"total_wiki_entities"`
		DimensionsAnalyzed int `json:"dimensions_analyzed"`
		InflectionPoints   int `json:"inflection_points"`
		ArenaRounds        int `json:"arena_rounds"`
	} `json:"statistics"`
}

// clusterNumber extracts the digits of a cluster id ("claim_12" -> 12).
// Ids without digits map to 0.
func clusterNumber(id ClusterID) int {
	var digits []byte
	for i := 0; i < len(id); i++ {
		if id[i] >= '0' && id[i] <= '9' {
			digits = append(digits, id[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0
	}
	return n
}
