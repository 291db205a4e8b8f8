package packsmith

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort    = "Build and run installer archives"
	MsgCompileShort = "Compile an install descriptor into an installer archive"
	MsgInstallShort = "Install an installer archive unattended"
	MsgListShort    = "List the packs of an installer archive"
	MsgListLong     = "List prints every pack stored in the archive with its flags, condition and sizes."
	MsgListExample  = "  packsmith list widget.jar"
	MsgVarsShort    = "Show the resolved variables of an installer archive"
	MsgVarsLong     = "Vars opens a session on the archive, applies --set assignments, refreshes the dynamic variables and prints the result."
	MsgVarsExample  = "  packsmith vars widget.jar --set os=windows"
	MsgVersionShort = "Print version information"

	// Status messages
	MsgCompiled       = "Compiled %d packs, %d files (%d shared, %d pack200)\n"
	MsgBytes          = "  %s -> %s\n"
	MsgOutputItem     = "  %s\n"
	MsgInstalled      = "Installed %d files from %d packs into %s\n"
	MsgSkippedItem    = "  skipped %s\n"
	MsgRecordWritten  = "Automation record written to %s\n"
	MsgNoPacks        = "No packs."
	MsgVariableItem   = "%s=%s\n"
	MsgVersionFormat  = "packsmith %s (commit %s, built %s)\n"

	// Error messages
	MsgErrCompile     = "failed to compile: %w"
	MsgErrOpen        = "failed to open installer: %w"
	MsgErrInstall     = "failed to install: %w"
	MsgErrRefresh     = "failed to refresh variables: %w"
	MsgErrAssignment  = "invalid assignment %q, expected name=value"
	MsgErrRecordRead  = "failed to read automation record: %w"
	MsgErrRecordWrite = "failed to write automation record: %w"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagOutput   = "Directory the installer archives are written to"
	MsgFlagName     = "Base name of the installer archive"
	MsgFlagFormat   = "Compression format (raw, deflate, gzip, xz, zstd)"
	MsgFlagLevel    = "Compression level, -1 for the codec default"
	MsgFlagPack200  = "Store jar payloads in dedicated packed streams"
	MsgFlagBaseDir  = "Directory relative sources resolve against (default: descriptor directory)"
	MsgFlagAuto     = "Apply an automation record before installing"
	MsgFlagSet      = "Set a variable, name=value (repeatable)"
	MsgFlagPack     = "Install exactly these packs plus the required ones (repeatable)"
	MsgFlagRoot     = "Resolve all target paths below this directory"
	MsgFlagRecord   = "Write an automation record of the installation"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/compile-long.txt
	msgCompileLongRaw string
	MsgCompileLong    = strings.TrimSpace(msgCompileLongRaw)

	//go:embed msgs/compile-example.txt
	msgCompileExampleRaw string
	MsgCompileExample    = strings.TrimRight(msgCompileExampleRaw, "\n")

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimRight(msgInstallExampleRaw, "\n")

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw) + "\n"
)
