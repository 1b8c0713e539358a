package main

import (
	"fmt"
	"io"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"
)

const Version = "devel"

func newVersionCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if verbose {
				PrintVerboseVersion(cmd.OutOrStdout(), Version)
			} else {
				PrintVersion(cmd.OutOrStdout(), Version)
			}
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print the Go version and dependencies")
	return cmd
}

// version returns a version descriptor and reports whether the
// version is a known release.
func version(human string) (_ string, known bool) {
	if human != "devel" {
		return human, true
	}
	v, ok := buildInfoVersion()
	if ok {
		return v, false
	}
	return "devel", false
}

func PrintVersion(w io.Writer, human string) {
	human, release := version(human)

	if release {
		fmt.Fprintf(w, "pipeview %s\n", human)
	} else if human == "devel" {
		fmt.Fprintln(w, "pipeview (no version)")
	} else {
		fmt.Fprintf(w, "pipeview (devel, %s)\n", human)
	}
}

func PrintVerboseVersion(w io.Writer, human string) {
	PrintVersion(w, human)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compiled with Go version:", runtime.Version())
	printBuildInfo(w)
}

func printBuildInfo(w io.Writer) {
	if info, ok := rdebug.ReadBuildInfo(); ok {
		fmt.Fprintln(w, "Main module:")
		printModule(w, &info.Main)
		fmt.Fprintln(w, "Dependencies:")
		for _, dep := range info.Deps {
			printModule(w, dep)
		}
	} else {
		fmt.Fprintln(w, "Built without Go modules")
	}
}

func buildInfoVersion() (string, bool) {
	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	if info.Main.Version == "(devel)" || info.Main.Version == "" {
		return "", false
	}
	return info.Main.Version, true
}

func printModule(w io.Writer, m *rdebug.Module) {
	fmt.Fprintf(w, "\t%s", m.Path)
	if m.Version != "(devel)" {
		fmt.Fprintf(w, "@%s", m.Version)
	}
	if m.Sum != "" {
		fmt.Fprintf(w, " (sum: %s)", m.Sum)
	}
	if m.Replace != nil {
		fmt.Fprintf(w, " (replace: %s)", m.Replace.Path)
	}
	fmt.Fprintln(w)
}
