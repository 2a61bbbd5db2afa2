package session

// EventPayload is the JSON payload persisted with session events.
type EventPayload struct {
	SessionID   string `json:"session_id,omitempty"`
	HostID      string `json:"host_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	CandidateID string `json:"candidate_id,omitempty"`
	MovieTitle  string `json:"movie_title,omitempty"`
	Status      string `json:"status,omitempty"`
	Winner      string `json:"winner,omitempty"`
	VoteType    string `json:"vote_type,omitempty"`
	Weight      int    `json:"weight,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
