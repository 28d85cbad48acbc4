package domain

// AnswerCandidate is the fast-path answer to a query.
// It is produced once per query and is never verified.
type AnswerCandidate struct {
	// Text is the generated answer.
	Text string `json:"text"`

	// PassagesUsed are the passages embedded in the prompt, in retrieval order.
	PassagesUsed []Passage `json:"-"`

	// Grounded is false when no passages were available and the
	// supportive fallback prompt was used.
	Grounded bool `json:"grounded"`

	// Emotion is set for wellness requests.
	Emotion string `json:"emotion,omitempty"`
}

// Sources returns the distinct source labels of the passages used.
func (a AnswerCandidate) Sources() []string {
	seen := make(map[string]bool, len(a.PassagesUsed))
	var labels []string
	for i := range a.PassagesUsed {
		label := a.PassagesUsed[i].SourceLabel
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// NarrativeCandidate is one complete story draft.
// Each regeneration attempt produces a full replacement, never a patch.
type NarrativeCandidate struct {
	// Title is a short title for the episode.
	Title string `json:"title"`

	// CentralFigure is the main character of the episode.
	CentralFigure string `json:"character"`

	// SourceLabel is copied from the metadata of the passage the episode came from.
	SourceLabel string `json:"source"`

	// NarrativeText is the story itself.
	NarrativeText string `json:"narrative"`

	// Moral is the lesson the story states, if any.
	Moral string `json:"moral,omitempty"`

	// AttemptNumber is the 1-based attempt that produced this candidate.
	AttemptNumber int `json:"attempt"`
}
