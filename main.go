// i18n-formatter — rewrites brace-style placeholders inside translation
// calls to the percent-style named formatting required by invenio-i18n.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Samk13/i18n-invenio-formatter/config"
	"github.com/Samk13/i18n-invenio-formatter/i18n"
	"github.com/Samk13/i18n-invenio-formatter/rewrite"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "i18n-formatter [path]",
		Short: "Rewrite brace-style translation strings to percent style",
		Long: `i18n-formatter — rewrites {name} placeholders inside _() and
lazy_gettext() calls to %(name)s style and collapses chained .format()
calls, so translated strings are filled by the i18n system instead of
Python. F-strings inside translation calls cannot be converted and are
flagged for manual fixing.

Files are modified in place without backups: review the changes with
your version control diff before committing. The path defaults to the
current directory. Exit code 1 means at least one call needs manual
attention.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return run(path, os.Stdout)
		},
	}

	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("i18n-formatter version %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}

// run processes the tree rooted at path and writes the summary to out.
// It returns an error when any call needs manual fixing, so the process
// exits non-zero.
func run(path string, out io.Writer) error {
	cfgRoot := path
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		cfgRoot = filepath.Dir(path)
	}

	cfg, err := config.Load(cfgRoot)
	if err != nil {
		return err
	}

	summary, err := rewrite.Tree(path, rewrite.Options{
		Keywords:    cfg.Keywords,
		Extensions:  cfg.Extensions,
		ExcludeDirs: cfg.ExcludeDirs,
	})
	if err != nil {
		return err
	}

	summary.Write(out)

	if n := len(summary.Records); n > 0 {
		return fmt.Errorf(i18n.N("%d call requires manual fixes", "%d calls require manual fixes", n), n)
	}
	return nil
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	i18n.Init("")

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Msg(err.Error())
		os.Exit(1)
	}
}
