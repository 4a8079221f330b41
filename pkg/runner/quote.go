package runner

import "strings"

// QuoteCommand renders an argument vector as a copy-pasteable shell line for
// the stream banner. Display only: the vector itself is always passed
// directly to process creation, never through a shell.
func QuoteCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " ")
}

// shellSpecial is the set of bytes that force single-quoting.
const shellSpecial = " \t\n\"'\\$&;|<>()`*?[]#~{}!"

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	// POSIX single-quote escaping: close, escaped quote, reopen.
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
