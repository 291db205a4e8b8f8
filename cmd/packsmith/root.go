package packsmith

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/packsmith/internal/version"
	"github.com/arthur-debert/packsmith/pkg/config"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/arthur-debert/packsmith/pkg/installer"
	"github.com/arthur-debert/packsmith/pkg/logging"
	"github.com/arthur-debert/packsmith/pkg/ui/styles"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// appFS is the filesystem every command works on
var appFS afero.Fs = afero.NewOsFs()

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	var verbosity int

	rootCmd := &cobra.Command{
		Use:     "packsmith",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			if styles.Plain {
				pterm.DisableStyling()
			}
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newVarsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// openSession opens the installer archive at path and starts a session on it
func openSession(path string) (*installer.Session, error) {
	cfg, err := config.Load(appFS, "", nil)
	if err != nil {
		return nil, err
	}
	archive, err := installer.Open(appFS, path)
	if err != nil {
		return nil, fmt.Errorf(MsgErrOpen, err)
	}
	session, err := installer.NewSession(appFS, archive, cfg)
	if err != nil {
		_ = archive.Close()
		return nil, fmt.Errorf(MsgErrOpen, err)
	}
	return session, nil
}

// parseAssignments splits name=value pairs, keeping their order
func parseAssignments(pairs []string) ([][2]string, error) {
	out := make([][2]string, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, MsgErrAssignment, pair)
		}
		out = append(out, [2]string{name, value})
	}
	return out, nil
}

func applyAssignments(s *installer.Session, pairs []string) error {
	assignments, err := parseAssignments(pairs)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		s.Set(a[0], a[1])
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}
