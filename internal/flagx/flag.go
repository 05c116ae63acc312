// Package flagx helps several flag sets share one command line.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs returns the subset of args that belongs to the flags named in
// allowed, together with their values, so that a secondary flag set can parse
// them without tripping over flags it does not define.
//
// Recognized forms:
//  1. Flag and value as separate arguments:  -c vault.json
//  2. Flag and value joined with '=':        -config=vault.json
//
// A token starting with "-" is never taken as a value, so "-c -v" keeps only
// "-c".
//
// Parameters:
//
//	args     the command-line arguments, usually os.Args[1:]
//	allowed  flag names to keep, spelled as on the command line ("-c")
//
// Returns:
//
//	A non-nil slice with the allowed flags and their values in their
//	original order.
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		known[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if known[name] {
				out = append(out, arg)
			}
			continue
		}

		if !known[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigPath returns the JSON config file given with -c or -config in
// os.Args, or "" when there is none.
func ConfigPath() string {
	return configPathFrom(os.Args[1:])
}

func configPathFrom(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (shorthand)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
