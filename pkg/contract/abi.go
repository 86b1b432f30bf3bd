package contract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// VotixABI is the JSON ABI of the deployed Votix contract.
const VotixABI = `[
  {"type":"event","name":"OwnerChanged","anonymous":false,"inputs":[
    {"name":"oldOwner","type":"address","indexed":true},
    {"name":"newOwner","type":"address","indexed":true}]},
  {"type":"event","name":"Voted","anonymous":false,"inputs":[
    {"name":"voter","type":"address","indexed":true},
    {"name":"candidateId","type":"uint256","indexed":false}]},
  {"type":"event","name":"VoterRegistered","anonymous":false,"inputs":[
    {"name":"voter","type":"address","indexed":true}]},
  {"type":"event","name":"VotingPeriodSet","anonymous":false,"inputs":[
    {"name":"startTime","type":"uint256","indexed":false},
    {"name":"endTime","type":"uint256","indexed":false}]},
  {"type":"function","name":"addCandidate","stateMutability":"nonpayable",
    "inputs":[{"name":"_name","type":"string"}],"outputs":[]},
  {"type":"function","name":"castVote","stateMutability":"nonpayable",
    "inputs":[{"name":"_candidateId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"candidates","stateMutability":"view",
    "inputs":[{"name":"","type":"uint256"}],
    "outputs":[{"name":"id","type":"uint256"},{"name":"name","type":"string"},{"name":"voteCount","type":"uint256"}]},
  {"type":"function","name":"candidatesCount","stateMutability":"view",
    "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"endVoting","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"getCandidates","stateMutability":"view","inputs":[],
    "outputs":[{"name":"","type":"tuple[]","components":[
      {"name":"id","type":"uint256"},{"name":"name","type":"string"},{"name":"voteCount","type":"uint256"}]}]},
  {"type":"function","name":"hasVoted","stateMutability":"view",
    "inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"isRegistered","stateMutability":"view",
    "inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"owner","stateMutability":"view",
    "inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"registerVoter","stateMutability":"nonpayable",
    "inputs":[{"name":"_voterAddress","type":"address"}],"outputs":[]},
  {"type":"function","name":"setVotingPeriod","stateMutability":"nonpayable",
    "inputs":[{"name":"_durationInMinutes","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"startVoting","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"transferOwnership","stateMutability":"nonpayable",
    "inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
  {"type":"function","name":"votingEnded","stateMutability":"view",
    "inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"votingEndTime","stateMutability":"view",
    "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"votingStarted","stateMutability":"view",
    "inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"votingStartTime","stateMutability":"view",
    "inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	parseOnce sync.Once
	parsedABI abi.ABI
	parseErr  error
)

// ParsedABI returns the decoded Votix ABI. The JSON is parsed once.
func ParsedABI() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(VotixABI))
		if parseErr != nil {
			parseErr = fmt.Errorf("parse votix abi: %w", parseErr)
		}
	})
	return parsedABI, parseErr
}
