package protocol

import (
	"strconv"
	"strings"
)

// Actor is the caller of a command as seen by the handlers.
type Actor struct {
	UserID     string
	GroupID    string
	Nickname   string
	Avatar     string
	Permission int
	ToMe       bool
	At         []string
	Args       []string
}

func (m CmdMsg) Actor() Actor {
	return Actor{
		UserID:     m.UserID,
		GroupID:    m.GroupID,
		Nickname:   m.Nickname,
		Avatar:     m.Avatar,
		Permission: m.Permission,
		ToMe:       m.ToMe,
		At:         m.At,
		Args:       m.Args,
	}
}

func (a Actor) Private() bool { return a.GroupID == "" }

// Text joins the raw arguments.
func (a Actor) Text() string { return strings.Join(a.Args, " ") }

// Mentioned is the single mentioned identity, if exactly one was mentioned.
func (a Actor) Mentioned() (string, bool) {
	if len(a.At) != 1 {
		return "", false
	}
	return a.At[0], true
}

// ParsedArgs is the conventional "name [count] [limit]" argument shape.
type ParsedArgs struct {
	Name     string
	N        int
	HasN     bool
	Limit    float64
	HasLimit bool
	Rest     []string
}

// ArgsParse reads "name [count] [limit]" by position: the first word is the
// name even when numeric, an integer second word is the count and a number
// after it is the limit. Whatever follows ends up in Rest. Commands that take
// only a bare count use ArgsCount.
func ArgsParse(args []string) ParsedArgs {
	var p ParsedArgs
	fields := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			fields = append(fields, a)
		}
	}
	if len(fields) == 0 {
		return p
	}
	p.Name = fields[0]
	i := 1
	if i < len(fields) {
		if n, err := strconv.Atoi(fields[i]); err == nil {
			p.N, p.HasN = n, true
			i++
		}
	}
	if i < len(fields) {
		if f, err := strconv.ParseFloat(fields[i], 64); err == nil {
			p.Limit, p.HasLimit = f, true
			i++
		}
	}
	if i < len(fields) {
		p.Rest = fields[i:]
	}
	return p
}

// ArgsCount returns the first integer among args, wherever it appears.
func ArgsCount(args []string) (int, bool) {
	for _, a := range args {
		if n, err := strconv.Atoi(strings.TrimSpace(a)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ArgInt returns the i-th argument as an integer.
func (a Actor) ArgInt(i int) (int, bool) {
	if i < 0 || i >= len(a.Args) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(a.Args[i]))
	return n, err == nil
}
