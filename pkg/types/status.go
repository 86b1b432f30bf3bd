// Package types holds shared data structures used across votix packages.
// Keeps things DRY - the HTTP status endpoint and the CLI status command print the same payload.
package types

import (
	"time"

	"github.com/salahayoub/votix/pkg/election"
)

// StatusResponse is the JSON payload returned by the /status endpoint.
type StatusResponse struct {
	Account       string            `json:"account"`
	ChainID       string            `json:"chain_id"`
	WrongNetwork  bool              `json:"wrong_network"`
	Status        string            `json:"status"`
	VotingEndTime uint64            `json:"voting_end_time"`
	Admin         bool              `json:"admin"`
	Voter         VoterStatus       `json:"voter"`
	Candidates    []CandidateStatus `json:"candidates"`
	TotalVotes    uint64            `json:"total_votes"`
	Winner        *CandidateStatus  `json:"winner,omitempty"`
	FetchedAt     time.Time         `json:"fetched_at"`
	// LastError is the most recent refresh failure; empty when the last refresh succeeded.
	LastError string `json:"last_error,omitempty"`
}

// VoterStatus is the connected account's standing.
type VoterStatus struct {
	Registered bool `json:"registered"`
	Voted      bool `json:"voted"`
}

// CandidateStatus is one candidate with its share of the vote.
type CandidateStatus struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Votes    uint64  `json:"votes"`
	Percent  float64 `json:"percent"`
	Slogan   string  `json:"slogan"`
	ImageURL string  `json:"image_url"`
}

// NewStatusResponse flattens a session and its snapshot. Either may be nil;
// the missing fields are left empty.
func NewStatusResponse(s *election.Session, snap *election.Snapshot) StatusResponse {
	resp := StatusResponse{Candidates: []CandidateStatus{}}

	if s != nil {
		resp.Account = s.Account.Hex()
		if s.ChainID != nil {
			resp.ChainID = s.ChainID.String()
		}
		resp.WrongNetwork = s.WrongNetwork
	}
	if snap == nil {
		return resp
	}

	resp.Status = snap.Status.String()
	resp.VotingEndTime = snap.VotingEndTime
	resp.Admin = snap.CallerIsAdmin
	resp.Voter = VoterStatus{Registered: snap.Voter.IsRegistered, Voted: snap.Voter.HasVoted}
	resp.FetchedAt = snap.FetchedAt

	total, shares := election.Tally(snap.Candidates)
	resp.TotalVotes = total
	for _, sh := range shares {
		resp.Candidates = append(resp.Candidates, CandidateStatus{
			ID:       sh.Candidate.ID,
			Name:     sh.Candidate.Name,
			Votes:    sh.Candidate.VoteCount,
			Percent:  sh.Percent,
			Slogan:   sh.Candidate.Slogan,
			ImageURL: sh.Candidate.ImageURL,
		})
	}

	if w, ok := snap.Winner(); ok {
		for i := range resp.Candidates {
			if resp.Candidates[i].ID == w.ID {
				c := resp.Candidates[i]
				resp.Winner = &c
				break
			}
		}
	}
	return resp
}
