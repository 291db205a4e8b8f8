package packsmith

import (
	"fmt"

	"github.com/arthur-debert/packsmith/pkg/automation"
	"github.com/arthur-debert/packsmith/pkg/installer"
	"github.com/arthur-debert/packsmith/pkg/ui/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// recordExcludes are the host-derived variables left out of automation records
var recordExcludes = []string{installer.VarOSName, installer.VarFileSep, installer.VarUserHome}

func newInstallCmd() *cobra.Command {
	var (
		auto     string
		sets     []string
		packList []string
		root     string
		record   string
	)

	cmd := &cobra.Command{
		Use:     "install <installer.jar>",
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			if auto != "" {
				if err := applyRecord(session, auto); err != nil {
					return err
				}
			}
			if len(packList) > 0 {
				if err := session.SelectOnly(packList); err != nil {
					return err
				}
			}
			if err := applyAssignments(session, sets); err != nil {
				return err
			}

			target := appFS
			if root != "" {
				target = afero.NewBasePathFs(appFS, root)
			}

			log.Info().
				Str("archive", args[0]).
				Strs("packs", session.SelectedPacks()).
				Str("root", root).
				Msg("Installing")

			report, err := session.Install(target)
			if err != nil {
				return fmt.Errorf(MsgErrInstall, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, styles.Render("Success", fmt.Sprintf(MsgInstalled,
				len(report.Installed), len(report.Packs), report.InstallPath)))
			for _, path := range report.Skipped {
				fmt.Fprint(out, styles.Render("Muted", fmt.Sprintf(MsgSkippedItem, path)))
			}

			if record != "" {
				if err := writeRecord(session, record); err != nil {
					return err
				}
				fmt.Fprintf(out, MsgRecordWritten, styles.Render("Path", record))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&auto, "auto", "", MsgFlagAuto)
	cmd.Flags().StringArrayVar(&sets, "set", nil, MsgFlagSet)
	cmd.Flags().StringArrayVar(&packList, "pack", nil, MsgFlagPack)
	cmd.Flags().StringVar(&root, "root", "", MsgFlagRoot)
	cmd.Flags().StringVar(&record, "record", "", MsgFlagRecord)

	return cmd
}

func applyRecord(s *installer.Session, path string) error {
	f, err := appFS.Open(path)
	if err != nil {
		return fmt.Errorf(MsgErrRecordRead, err)
	}
	defer func() { _ = f.Close() }()

	r, err := automation.Load(f)
	if err != nil {
		return fmt.Errorf(MsgErrRecordRead, err)
	}
	return automation.Apply(s, r)
}

func writeRecord(s *installer.Session, path string) error {
	f, err := appFS.Create(path)
	if err != nil {
		return fmt.Errorf(MsgErrRecordWrite, err)
	}
	if err := automation.Save(f, automation.Capture(s, recordExcludes...)); err != nil {
		_ = f.Close()
		return fmt.Errorf(MsgErrRecordWrite, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf(MsgErrRecordWrite, err)
	}
	return nil
}
