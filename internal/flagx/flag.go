// Package flagx lets several configuration layers share os.Args: each
// layer picks out only the flags it owns.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps the arguments that belong to the named flags and drops
// the rest. Both "-c value" and "-c=value" forms are understood; a token
// starting with '-' is never taken as a value.
func FilterArgs(args []string, names []string) []string {
	owned := make(map[string]bool, len(names))
	for _, n := range names {
		owned[n] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, inline := strings.Cut(arg, "="); inline {
			if owned[name] {
				out = append(out, arg)
			}
			continue
		}

		if !owned[arg] {
			continue
		}
		out = append(out, arg)
		if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
			out = append(out, args[next])
			i = next
		}
	}
	return out
}

// ConfigFile returns the value of -c/-config found in args, or "" when the
// flag is absent. The last occurrence wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to a JSON, YAML or TOML config file")
	fs.StringVar(&path, "c", "", "shorthand for -config")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--c", "--config"}))

	return path
}

// ConfigFileFlag is ConfigFile over the process arguments.
func ConfigFileFlag() string {
	return ConfigFile(os.Args[1:])
}
