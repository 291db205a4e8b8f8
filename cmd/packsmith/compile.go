package packsmith

import (
	"fmt"
	"path/filepath"

	"github.com/arthur-debert/packsmith/pkg/compiler"
	"github.com/arthur-debert/packsmith/pkg/config"
	"github.com/arthur-debert/packsmith/pkg/ui/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newCompileCmd() *cobra.Command {
	var (
		output  string
		name    string
		format  string
		level   int
		pack200 bool
		baseDir string
	)

	cmd := &cobra.Command{
		Use:     "compile <install.xml>",
		Short:   MsgCompileShort,
		Long:    MsgCompileLong,
		Example: MsgCompileExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptorPath := args[0]

			// flags only override what the user actually passed
			overrides := map[string]interface{}{}
			flags := cmd.Flags()
			if flags.Changed("output") {
				overrides["output.dir"] = output
			}
			if flags.Changed("name") {
				overrides["output.name"] = name
			}
			if flags.Changed("format") {
				overrides["compression.format"] = format
			}
			if flags.Changed("level") {
				overrides["compression.level"] = level
			}
			if flags.Changed("pack200") {
				overrides["pack200"] = pack200
			}

			cfg, err := config.Load(appFS, filepath.Dir(descriptorPath), overrides)
			if err != nil {
				return err
			}

			log.Info().
				Str("descriptor", descriptorPath).
				Str("format", cfg.Compression.Format).
				Str("output", cfg.Output.Dir).
				Msg("Compiling installer")

			summary, err := compiler.Compile(appFS, compiler.Options{
				Descriptor: descriptorPath,
				BaseDir:    baseDir,
				Config:     cfg,
			})
			if err != nil {
				return fmt.Errorf(MsgErrCompile, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, styles.Render("Success", fmt.Sprintf(MsgCompiled,
				summary.Packs, summary.Files, summary.BackRefs, summary.Pack200)))
			fmt.Fprintf(out, MsgBytes, formatSize(summary.Uncompressed), formatSize(summary.Stored))
			for _, path := range summary.Outputs {
				fmt.Fprintf(out, MsgOutputItem, styles.Render("Path", path))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", MsgFlagOutput)
	cmd.Flags().StringVar(&name, "name", "", MsgFlagName)
	cmd.Flags().StringVar(&format, "format", "", MsgFlagFormat)
	cmd.Flags().IntVar(&level, "level", -1, MsgFlagLevel)
	cmd.Flags().BoolVar(&pack200, "pack200", false, MsgFlagPack200)
	cmd.Flags().StringVar(&baseDir, "basedir", "", MsgFlagBaseDir)

	return cmd
}

// formatSize renders a byte count with a binary unit
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
