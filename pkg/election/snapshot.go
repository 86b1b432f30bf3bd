package election

import (
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the election phase derived from the contract flags.
type Status int

const (
	StatusNotStarted Status = iota
	StatusLive
	StatusEnded
)

// String returns the label shown to users.
func (s Status) String() string {
	switch s {
	case StatusLive:
		return "Live"
	case StatusEnded:
		return "Ended"
	default:
		return "Not Started"
	}
}

// DeriveStatus maps the contract flags to a Status. The ended flag dominates.
func DeriveStatus(started, ended bool) Status {
	switch {
	case ended:
		return StatusEnded
	case started:
		return StatusLive
	default:
		return StatusNotStarted
	}
}

// Candidate is a contract candidate enriched with display metadata.
type Candidate struct {
	ID        uint64
	Name      string
	VoteCount uint64
	Slogan    string
	ImageURL  string
}

// VoterStatus describes the connected account's standing.
type VoterStatus struct {
	IsRegistered bool
	HasVoted     bool
}

// CanVote reports whether a vote may be proposed.
func (v VoterStatus) CanVote() bool {
	return v.IsRegistered && !v.HasVoted
}

// Snapshot is an immutable view of election state as of one refresh.
// Callers must not modify it; a new Snapshot replaces it on every refresh.
type Snapshot struct {
	Account       common.Address
	Candidates    []Candidate
	Status        Status
	VotingEndTime uint64 // epoch seconds; 0 until voting starts
	CallerIsAdmin bool
	Voter         VoterStatus
	FetchedAt     time.Time
}

// Candidate returns the candidate with id.
func (s *Snapshot) Candidate(id uint64) (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}

// TimerVisible reports whether a countdown applies.
func (s *Snapshot) TimerVisible() bool {
	return s.Status == StatusLive
}

// TotalVotes sums all vote counts.
func (s *Snapshot) TotalVotes() uint64 {
	total, _ := Tally(s.Candidates)
	return total
}

// Winner returns the leading candidate once the election has ended.
func (s *Snapshot) Winner() (Candidate, bool) {
	if s.Status != StatusEnded {
		return Candidate{}, false
	}
	return Winner(s.Candidates)
}

// SameContractState reports whether s and o carry the same contract-derived fields.
// Display enrichment and fetch time are ignored.
func (s *Snapshot) SameContractState(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Account != o.Account || s.Status != o.Status || s.VotingEndTime != o.VotingEndTime ||
		s.CallerIsAdmin != o.CallerIsAdmin || s.Voter != o.Voter || len(s.Candidates) != len(o.Candidates) {
		return false
	}
	for i := range s.Candidates {
		a, b := s.Candidates[i], o.Candidates[i]
		if a.ID != b.ID || a.Name != b.Name || a.VoteCount != b.VoteCount {
			return false
		}
	}
	return true
}

// Share is one candidate's portion of the total vote.
type Share struct {
	Candidate Candidate
	Percent   float64 // 0..100
}

// Tally returns the total vote count and each candidate's share, in input order.
// Every percentage is 0 when no votes were cast.
func Tally(candidates []Candidate) (uint64, []Share) {
	var total uint64
	for _, c := range candidates {
		total += c.VoteCount
	}

	shares := make([]Share, len(candidates))
	for i, c := range candidates {
		shares[i].Candidate = c
		if total > 0 {
			shares[i].Percent = float64(c.VoteCount) / float64(total) * 100
		}
	}
	return total, shares
}

// Winners returns every candidate holding the highest vote count, ordered by id.
func Winners(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}
	var top uint64
	for _, c := range candidates {
		if c.VoteCount > top {
			top = c.VoteCount
		}
	}
	var out []Candidate
	for _, c := range candidates {
		if c.VoteCount == top {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Winner returns the leading candidate. Ties go to the lowest id.
func Winner(candidates []Candidate) (Candidate, bool) {
	w := Winners(candidates)
	if len(w) == 0 {
		return Candidate{}, false
	}
	return w[0], true
}
