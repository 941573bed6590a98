// internal/mysql/command.go
package mysql

import (
	"strconv"
	"strings"
)

// Command is a mysql client invocation. Args are passed to the process
// directly, so no value is ever interpreted by a shell.
type Command struct {
	Path string
	Args []string
}

// BuildCommand assembles the client arguments for running sqlText in batch
// mode against opts:
//
//	--host=<host> --port=<port> --user=<user> --protocol=TCP [--password=<pw>]
//	[--ssl-mode=REQUIRED] [--database=<db>] --batch --execute=<sql>
//
// Every caller-supplied value is attached to its option, so a value that
// starts with "-" can never be read as another option.
func BuildCommand(clientPath string, opts ConnectionOptions, sqlText string) Command {
	if clientPath == "" {
		clientPath = "mysql"
	}
	opts = opts.WithDefaults()

	args := []string{
		"--host=" + opts.Host,
		"--port=" + strconv.Itoa(int(opts.Port)),
		"--user=" + opts.User,
		"--protocol=TCP",
	}
	if opts.Password != "" {
		args = append(args, "--password="+opts.Password)
	}
	if opts.SSL {
		args = append(args, "--ssl-mode=REQUIRED")
	}
	if opts.Database != "" {
		args = append(args, "--database="+opts.Database)
	}
	args = append(args, "--batch", "--execute="+sqlText)

	return Command{Path: clientPath, Args: args}
}

// String renders the command as a copy-pasteable shell line. Every argument
// is single-quoted.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, a := range c.Args {
		parts = append(parts, ShellQuote(a))
	}
	return strings.Join(parts, " ")
}

// Redacted is String with the password value masked, for logs.
func (c Command) Redacted() string {
	masked := Command{Path: c.Path, Args: make([]string, len(c.Args))}
	for i, a := range c.Args {
		if strings.HasPrefix(a, "--password=") {
			a = "--password=****"
		}
		masked.Args[i] = a
	}
	return masked.String()
}

// ShellQuote wraps s in single quotes. An embedded quote closes the
// quoted run, is emitted escaped, and the run is reopened: ' becomes '\''.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
