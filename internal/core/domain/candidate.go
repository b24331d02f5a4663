package domain

type CandidateStatus string

const (
	StatusWaiting     CandidateStatus = "waiting"
	StatusRequesting  CandidateStatus = "requesting"
	StatusOffering    CandidateStatus = "offering"
	StatusConsidering CandidateStatus = "considering"
	StatusAccepted    CandidateStatus = "accepted"
	StatusRejected    CandidateStatus = "rejected"
)

// Candidate is the directory record the pipeline consumes. Status is the
// single source of truth for where in the process a candidate is.
type Candidate struct {
	Email  string          `json:"email"`
	Status CandidateStatus `json:"status"`
}
