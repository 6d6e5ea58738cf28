package main

// Command names
const (
	CmdNameCompile  = "compile"
	CmdNameCheck    = "check"
	CmdNameManifest = "manifest"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagTemplate   = "template"
	FlagDir        = "dir"
	FlagCompress   = "compress"
	FlagProvider   = "provider"
	FlagOutput     = "output"
	FlagConfig     = "config"
	FlagHome       = "home"
	FlagFormat     = "format"
	FlagVerbose    = "verbose"
	FlagInput      = "input"
	FlagFreshCheck = "fresh"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagDirShort      = "d"
	FlagCompressShort = "c"
	FlagProviderShort = "p"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
	FlagVerboseShort  = "v"
	FlagInputShort    = "i"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess      = 0
	ExitCodeError        = 1
	ExitCodeUsageError   = 2
	ExitCodeCompileError = 3
	ExitCodeInputError   = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand    = "unknown command"
	ErrMsgMissingTemplate   = "template source required"
	ErrMsgMissingInput      = "compiled input required"
	ErrMsgInvalidArguments  = "invalid arguments"
	ErrMsgReadFileFailed    = "failed to read file"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgCompileFailed     = "template compilation failed"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgConfigFailed      = "failed to load configuration"
	ErrMsgEngineFailed      = "failed to create engine"
	ErrMsgManifestFailed    = "failed to decode manifest"
)

// Help text templates
const (
	HelpMainUsage = `boltview - template markup to PHP compiler

Usage:
    boltview <command> [options]

Commands:
    compile     Compile a template to PHP
    check       Compile a template and report errors
    manifest    Show the manifest header of compiled code
    version     Show version information
    help        Show help for a command

Use "boltview help <command>" for more information about a command.`

	HelpCompileUsage = `Compile a template to PHP

Usage:
    boltview compile [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -d, --dir <dir>         Virtual directory for stdin templates
    -c, --compress          Compact whitespace in the output
    -p, --provider <func>   Data provider function for {@name} tags
    -o, --output <file>     Output file (default: stdout)
    --home <dir>            Home directory for manifest paths
    --config <file>         YAML config file
    -v, --verbose           Log compile progress to stderr

Examples:
    boltview compile -t views/index.html
    boltview compile -t views/index.html -c -o cache/index.php
    cat page.html | boltview compile -t - -d views
    boltview compile -t views/index.html --config boltview.yaml`

	HelpCheckUsage = `Compile a template and report errors

Usage:
    boltview check [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -d, --dir <dir>         Virtual directory for stdin templates
    -F, --format <format>   Output format: text, json (default: text)
    --config <file>         YAML config file

Examples:
    boltview check -t views/index.html
    boltview check -t views/index.html -F json
    cat page.html | boltview check -t -`

	HelpManifestUsage = `Show the manifest header of compiled code

Usage:
    boltview manifest [options]

Options:
    -i, --input <file>      Compiled file (use "-" for stdin)
    --home <dir>            Home directory the manifest paths are relative to
    --fresh                 Exit with status 3 when the code is stale
    -F, --format <format>   Output format: text, json (default: text)

Examples:
    boltview manifest -i cache/index.php
    boltview manifest -i cache/index.php --home views --fresh`

	HelpVersionUsage = `Show version information

Usage:
    boltview version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    boltview help [command]

Commands:
    compile     Show help for compile command
    check       Show help for check command
    manifest    Show help for manifest command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "boltview version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Check output format templates
const (
	CheckTextSuccess     = "Template is valid"
	CheckTextErrorFormat = "Compile error: %s"
	CheckTextLayerFormat = "  layer: %s"
	CheckTextTagFormat   = "  tag: %s"
	CheckTextFilesFormat = "%d file(s) compiled"
)

// Manifest output format templates
const (
	ManifestTextEntryFormat    = "%s  %s"
	ManifestTextCompressFormat = "compress: %t"
	ManifestTextFreshFormat    = "fresh: %t"
)

// CLI metadata
const (
	CLIName        = "boltview"
	CLIDescription = "template markup to PHP compiler"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
