package tui

import (
	"errors"
	"strconv"
	"strings"
)

// CommandType represents the type of command.
type CommandType int

const (
	CommandConnect CommandType = iota
	CommandRefresh
	CommandVote
	CommandRegister
	CommandAdd
	CommandPeriod
	CommandStart
	CommandEnd
	CommandHelp
)

// String returns a human-readable representation of the CommandType.
func (c CommandType) String() string {
	switch c {
	case CommandConnect:
		return "CONNECT"
	case CommandRefresh:
		return "REFRESH"
	case CommandVote:
		return "VOTE"
	case CommandRegister:
		return "REGISTER"
	case CommandAdd:
		return "ADD"
	case CommandPeriod:
		return "PERIOD"
	case CommandStart:
		return "START"
	case CommandEnd:
		return "END"
	case CommandHelp:
		return "HELP"
	default:
		return "UNKNOWN"
	}
}

// Admin reports whether the command drives an owner-only contract method.
func (c CommandType) Admin() bool {
	switch c {
	case CommandRegister, CommandAdd, CommandPeriod, CommandStart, CommandEnd:
		return true
	}
	return false
}

// Command represents a parsed command with its argument.
type Command struct {
	Type   CommandType
	Arg    string // address for REGISTER, name for ADD
	Number uint64 // candidate id for VOTE, minutes for PERIOD
}

// Common parsing errors.
var (
	ErrEmptyCommand    = errors.New("empty command")
	ErrUnknownCommand  = errors.New("unknown command: type help for a list")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidNumber   = errors.New("argument must be a positive whole number")
)

// HelpText lists the supported commands.
const HelpText = "connect | refresh | vote <id> | register <0x...> | add <name> | period <minutes> | start | end"

// ParseCommand parses a command string and returns a structured Command.
// Supported syntax:
//   - "connect", "refresh", "start", "end", "help"
//   - "vote <id>" - propose a vote for the candidate id
//   - "register <address>" - register a voter
//   - "add <name>" - add a candidate, the name may contain spaces
//   - "period <minutes>" - set the voting period
//
// Returns an error for invalid command syntax.
func ParseCommand(input string) (*Command, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, ErrEmptyCommand
	}

	switch strings.ToLower(parts[0]) {
	case "connect":
		return &Command{Type: CommandConnect}, nil
	case "refresh":
		return &Command{Type: CommandRefresh}, nil
	case "start":
		return &Command{Type: CommandStart}, nil
	case "end":
		return &Command{Type: CommandEnd}, nil
	case "help", "?":
		return &Command{Type: CommandHelp}, nil

	case "vote":
		n, err := parseNumber(parts)
		if err != nil {
			return nil, err
		}
		return &Command{Type: CommandVote, Number: n}, nil

	case "period":
		n, err := parseNumber(parts)
		if err != nil {
			return nil, err
		}
		return &Command{Type: CommandPeriod, Number: n}, nil

	case "register":
		if len(parts) < 2 {
			return nil, ErrMissingArgument
		}
		return &Command{Type: CommandRegister, Arg: parts[1]}, nil

	case "add":
		if len(parts) < 2 {
			return nil, ErrMissingArgument
		}
		return &Command{Type: CommandAdd, Arg: strings.Join(parts[1:], " ")}, nil

	default:
		return nil, ErrUnknownCommand
	}
}

func parseNumber(parts []string) (uint64, error) {
	if len(parts) < 2 {
		return 0, ErrMissingArgument
	}
	n, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidNumber
	}
	return n, nil
}
