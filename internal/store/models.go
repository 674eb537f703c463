package store

// Turn roles as stored in the chat log.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Profile is the persisted description of a simulated person. It is written
// once by the upload/analyze flow and read verbatim by the chat flow; the
// json tags double as the shape of the analysis JSON returned by Gemini.
type Profile struct {
	Name              string   `json:"name"               firestore:"name"`
	Nickname          string   `json:"nickname"           firestore:"nickname"`
	Relationship      string   `json:"relationship"       firestore:"relationship"`
	AvatarURL         string   `json:"avatar_url"         firestore:"avatar_url"`
	PersonalityPrompt string   `json:"personality_prompt" firestore:"personality_prompt"`
	AnalysisStatus    string   `json:"analysis_status"    firestore:"analysis_status"`
	SampleMessages    []string `json:"sample_messages"    firestore:"sample_messages"`
}

// ProfileSummary is the listing projection of a profile: its key and
// display name only.
type ProfileSummary struct {
	ProfileID string `json:"profileId"`
	Name      string `json:"name"`
}

// Turn is a single message in a conversation with a simulated person.
// TS is epoch milliseconds.
type Turn struct {
	Role string `json:"role" firestore:"role"`
	Text string `json:"text" firestore:"text"`
	TS   int64  `json:"ts"   firestore:"ts"`
}
