package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/itsatony/go-boltview"
)

// manifestConfig holds parsed manifest command configuration
type manifestConfig struct {
	inputPath  string
	homeDir    string
	freshCheck bool
	format     string
}

// manifestOutput represents JSON output for manifest
type manifestOutput struct {
	Files    []manifestFileOutput `json:"files"`
	Compress bool                 `json:"compress"`
	Fresh    bool                 `json:"fresh"`
}

type manifestFileOutput struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

func runManifest(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseManifestFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	data, err := readInput(cfg.inputPath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	manifest, err := boltview.ParseManifest(string(data))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgManifestFailed, err)
		return ExitCodeInputError
	}

	homeDir := cfg.homeDir
	if homeDir != "" {
		homeDir = filepath.Clean(homeDir)
	}
	output := manifestOutput{
		Files:    make([]manifestFileOutput, 0, len(manifest.Entries)),
		Compress: manifest.Compress,
		Fresh:    manifest.Fresh(homeDir, manifest.Compress),
	}
	for _, entry := range manifest.Entries {
		output.Files = append(output.Files, manifestFileOutput{Path: entry.Path, Hash: entry.Hash})
	}

	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
	} else {
		for _, file := range output.Files {
			fmt.Fprintf(stdout, ManifestTextEntryFormat+FmtNewline, file.Hash, file.Path)
		}
		fmt.Fprintf(stdout, ManifestTextCompressFormat+FmtNewline, output.Compress)
		fmt.Fprintf(stdout, ManifestTextFreshFormat+FmtNewline, output.Fresh)
	}

	if cfg.freshCheck && !output.Fresh {
		return ExitCodeCompileError
	}
	return ExitCodeSuccess
}

func parseManifestFlags(args []string) (*manifestConfig, error) {
	fs := flag.NewFlagSet(CmdNameManifest, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &manifestConfig{}

	fs.StringVar(&cfg.inputPath, FlagInput, "", "")
	fs.StringVar(&cfg.inputPath, FlagInputShort, "", "")
	fs.StringVar(&cfg.homeDir, FlagHome, "", "")
	fs.BoolVar(&cfg.freshCheck, FlagFreshCheck, false, "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.inputPath == "" {
		return nil, errors.New(ErrMsgMissingInput)
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}
