package packsmith

import (
	"fmt"
	"sort"

	"github.com/arthur-debert/packsmith/pkg/ui/styles"
	"github.com/spf13/cobra"
)

func newVarsCmd() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:     "vars <installer.jar>",
		Short:   MsgVarsShort,
		Long:    MsgVarsLong,
		Example: MsgVarsExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			if err := applyAssignments(session, sets); err != nil {
				return err
			}
			if err := session.Refresh(); err != nil {
				return fmt.Errorf(MsgErrRefresh, err)
			}

			values := session.Variables()
			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, MsgVariableItem, styles.Render("Variable", name), values[name])
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, MsgFlagSet)
	return cmd
}
