package model

// Provenance captures how a candidate was discovered. Its values are the
// learning keys for the pattern confidence store.
type Provenance struct {
	QueryTerm string `json:"query_term,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

// Candidate is a raw contact candidate emitted by the crawler. It is
// ephemeral: consumed exactly once by the admission gate and never
// persisted in this shape.
type Candidate struct {
	Name       string     `json:"name,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Email      string     `json:"email,omitempty"`
	URL        string     `json:"url"`
	Title      string     `json:"title,omitempty"`
	Snippet    string     `json:"snippet,omitempty"`
	Content    string     `json:"content,omitempty"`
	Company    string     `json:"company,omitempty"`
	Role       string     `json:"role,omitempty"`
	Location   string     `json:"location,omitempty"`
	Provenance Provenance `json:"provenance,omitempty"`
}
