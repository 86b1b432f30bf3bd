package election

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusNotStarted, DeriveStatus(false, false))
	assert.Equal(t, StatusLive, DeriveStatus(true, false))
	assert.Equal(t, StatusEnded, DeriveStatus(true, true))
	assert.Equal(t, StatusEnded, DeriveStatus(false, true))

	assert.Equal(t, "Not Started", StatusNotStarted.String())
	assert.Equal(t, "Live", StatusLive.String())
	assert.Equal(t, "Ended", StatusEnded.String())
}

func TestDeriveStatus_EndedDominates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		started := rapid.Bool().Draw(t, "started")
		ended := rapid.Bool().Draw(t, "ended")

		got := DeriveStatus(started, ended)
		if ended && got != StatusEnded {
			t.Fatalf("ended flag set but status is %v", got)
		}
		if !ended && started && got != StatusLive {
			t.Fatalf("started without end should be Live, got %v", got)
		}
		if !ended && !started && got != StatusNotStarted {
			t.Fatalf("no flags should be Not Started, got %v", got)
		}
	})
}

func candidatesWithVotes(votes []uint64) []Candidate {
	out := make([]Candidate, len(votes))
	for i, v := range votes {
		out[i] = Candidate{ID: uint64(i + 1), Name: string(rune('A' + i%26)), VoteCount: v}
	}
	return out
}

func TestTally_PercentagesSumTo100(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		votes := rapid.SliceOfN(rapid.Uint64Range(0, 1_000_000), 0, 30).Draw(t, "votes")
		total, shares := Tally(candidatesWithVotes(votes))

		var want uint64
		for _, v := range votes {
			want += v
		}
		if total != want {
			t.Fatalf("total %d, want %d", total, want)
		}
		if len(shares) != len(votes) {
			t.Fatalf("got %d shares for %d candidates", len(shares), len(votes))
		}

		var sum float64
		for _, s := range shares {
			if total == 0 && s.Percent != 0 {
				t.Fatalf("zero total must give 0%%, got %v", s.Percent)
			}
			if s.Percent < 0 || s.Percent > 100 {
				t.Fatalf("percentage out of range: %v", s.Percent)
			}
			sum += s.Percent
		}
		if total > 0 && math.Abs(sum-100) > 1e-6 {
			t.Fatalf("percentages sum to %v", sum)
		}
	})
}

func TestTally(t *testing.T) {
	total, shares := Tally(candidatesWithVotes([]uint64{1, 3}))
	assert.Equal(t, uint64(4), total)
	require.Len(t, shares, 2)
	assert.InDelta(t, 25.0, shares[0].Percent, 1e-9)
	assert.InDelta(t, 75.0, shares[1].Percent, 1e-9)

	total, shares = Tally(nil)
	assert.Zero(t, total)
	assert.Empty(t, shares)
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name      string
		votes     []uint64
		wantID    uint64
		wantTied  int
		wantFound bool
	}{
		{"none", nil, 0, 0, false},
		{"clear leader", []uint64{2, 7, 1}, 2, 1, true},
		{"tie goes to lowest id", []uint64{5, 1, 5}, 1, 2, true},
		{"no votes is a full tie", []uint64{0, 0}, 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := candidatesWithVotes(tt.votes)
			w, ok := Winner(cands)
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantID, w.ID)
			assert.Len(t, Winners(cands), tt.wantTied)
		})
	}
}

func TestSnapshot_WinnerOnlyWhenEnded(t *testing.T) {
	snap := &Snapshot{Status: StatusLive, Candidates: candidatesWithVotes([]uint64{3, 4})}
	_, ok := snap.Winner()
	assert.False(t, ok)
	assert.True(t, snap.TimerVisible())

	snap = &Snapshot{Status: StatusEnded, Candidates: candidatesWithVotes([]uint64{3, 4})}
	w, ok := snap.Winner()
	require.True(t, ok)
	assert.Equal(t, uint64(2), w.ID)
	assert.False(t, snap.TimerVisible())
	assert.Equal(t, uint64(7), snap.TotalVotes())

	snap = &Snapshot{Status: StatusEnded}
	_, ok = snap.Winner()
	assert.False(t, ok)
}

func TestSnapshot_SameContractState(t *testing.T) {
	a := &Snapshot{Candidates: []Candidate{{ID: 1, Name: "A", VoteCount: 2, Slogan: "x"}}, Status: StatusLive}
	b := &Snapshot{Candidates: []Candidate{{ID: 1, Name: "A", VoteCount: 2, Slogan: "y"}}, Status: StatusLive}
	assert.True(t, a.SameContractState(b), "enrichment is ignored")

	b.Candidates[0].VoteCount = 3
	assert.False(t, a.SameContractState(b))

	var nilSnap *Snapshot
	assert.True(t, nilSnap.SameContractState(nil))
	assert.False(t, a.SameContractState(nil))
}

func TestVoterStatus_CanVote(t *testing.T) {
	assert.True(t, VoterStatus{IsRegistered: true}.CanVote())
	assert.False(t, VoterStatus{IsRegistered: true, HasVoted: true}.CanVote())
	assert.False(t, VoterStatus{}.CanVote())
	assert.False(t, VoterStatus{HasVoted: true}.CanVote())
}
