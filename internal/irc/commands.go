package irc

// Outgoing line builders. None of them append the CRLF terminator; the writer does.

func Nick(nick string) string { return CmdNick + " " + nick }

// User builds the user declaration with mode 0 and an unused '*' field.
func User(user, realname string) string { return CmdUser + " " + user + " 0 * :" + realname }

func Join(channel string) string { return CmdJoin + " " + channel }

func Privmsg(target, text string) string { return CmdPrivmsg + " " + target + " :" + text }

func Quit(reason string) string { return CmdQuit + " :" + reason }
