package packsmith

import (
	"fmt"
	"strconv"

	"github.com/arthur-debert/packsmith/pkg/ui/styles"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <installer.jar>",
		Short:   MsgListShort,
		Long:    MsgListLong,
		Example: MsgListExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			out := cmd.OutOrStdout()
			all := session.Packs()
			if len(all) == 0 {
				fmt.Fprintln(out, MsgNoPacks)
				return nil
			}

			data := pterm.TableData{{"Pack", "Required", "Selected", "External", "Condition", "Files", "Size", "Stored"}}
			for _, p := range all {
				data = append(data, []string{
					styles.Render("PackName", p.Name),
					yesNo(p.Required),
					yesNo(session.IsPackSelected(p.Name)),
					yesNo(p.External),
					p.Condition,
					strconv.Itoa(len(p.Files)),
					formatSize(p.Size),
					formatSize(p.FileSize),
				})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, table)
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
