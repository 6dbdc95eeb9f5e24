package irc

import "strings"

// Well-known verbs and numerics used by the bot.
const (
	CmdPing    = "PING"
	CmdPong    = "PONG"
	CmdPrivmsg = "PRIVMSG"
	CmdNotice  = "NOTICE"
	CmdJoin    = "JOIN"
	CmdNick    = "NICK"
	CmdUser    = "USER"
	CmdQuit    = "QUIT"
	CmdError   = "ERROR"

	RplWelcome = "001"
)

// Message is one parsed protocol line.
type Message struct {
	Prefix  string // source without the leading ':'
	Nick    string // part of Prefix before '!', empty if there is no '!'
	Command string
	Target  string
	Text    string // trailing field without the leading ':', empty if absent
	Raw     string
}

// Parse splits line into at most four space-delimited fields: prefix, command, target and trailing text.
// It returns nil when the line has fewer than three fields. No validation is applied to the command.
//
// Lines without a prefix shift every field left by one, so "PING :x" style lines have too few fields;
// callers intercept those before parsing.
func Parse(line string) *Message {
	parts := strings.SplitN(line, " ", 4)
	if len(parts) < 3 {
		return nil
	}
	m := &Message{
		Command: parts[1],
		Target:  parts[2],
		Raw:     line,
	}
	if strings.HasPrefix(parts[0], ":") {
		m.Prefix = parts[0][1:]
	}
	if len(parts) > 3 && strings.HasPrefix(parts[3], ":") {
		m.Text = parts[3][1:]
	}
	if i := strings.IndexByte(m.Prefix, '!'); i >= 0 {
		m.Nick = m.Prefix[:i]
	}
	return m
}

// IsChannel reports whether target names a channel rather than a user.
func IsChannel(target string) bool {
	return strings.HasPrefix(target, "#") || strings.HasPrefix(target, "&")
}

// IsPing reports whether line is a keep-alive probe.
func IsPing(line string) bool { return strings.HasPrefix(line, CmdPing) }

// PongFor builds the reply to a keep-alive probe: the first PING becomes PONG,
// the remainder of the line is kept verbatim.
func PongFor(line string) string { return strings.Replace(line, CmdPing, CmdPong, 1) }
