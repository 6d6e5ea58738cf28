package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/itsatony/go-boltview"
	"github.com/itsatony/go-cuserr"
)

// checkConfig holds parsed check command configuration
type checkConfig struct {
	templatePath string
	virtualDir   string
	format       string
	configPath   string
}

// checkOutput represents JSON output for check
type checkOutput struct {
	Valid bool     `json:"valid"`
	Files []string `json:"files,omitempty"`
	Error string   `json:"error,omitempty"`
	Layer string   `json:"layer,omitempty"`
	Tag   string   `json:"tag,omitempty"`
}

func runCheck(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseCheckFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	fileCfg, err := loadConfig(cfg.configPath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgConfigFailed, err)
		return ExitCodeInputError
	}

	engine, err := boltview.NewFromConfig(fileCfg)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEngineFailed, err)
		return ExitCodeError
	}

	var code string
	if cfg.templatePath == InputSourceStdin {
		var source []byte
		source, err = readInput(cfg.templatePath, stdin)
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
			return ExitCodeInputError
		}
		code, err = engine.CompileString(string(source), cfg.virtualDir, fileCfg.Compress)
	} else {
		code, err = engine.Compile(cfg.templatePath, fileCfg.Compress)
	}

	output := newCheckOutput(code, err)
	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
	} else {
		outputCheckText(output, stdout)
	}

	if !output.Valid {
		return ExitCodeCompileError
	}
	return ExitCodeSuccess
}

func parseCheckFlags(args []string) (*checkConfig, error) {
	fs := flag.NewFlagSet(CmdNameCheck, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &checkConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.virtualDir, FlagDir, "", "")
	fs.StringVar(&cfg.virtualDir, FlagDirShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.StringVar(&cfg.configPath, FlagConfig, "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

func newCheckOutput(code string, err error) checkOutput {
	if err != nil {
		output := checkOutput{Error: err.Error()}
		var customErr *cuserr.CustomError
		if errors.As(err, &customErr) {
			output.Layer = metadataString(customErr, boltview.MetaKeyLayer)
			output.Tag = metadataString(customErr, boltview.MetaKeyTag)
		}
		return output
	}

	output := checkOutput{Valid: true}
	if manifest, err := boltview.ParseManifest(code); err == nil {
		output.Files = manifest.Files()
	}
	return output
}

func metadataString(err *cuserr.CustomError, key string) string {
	value, ok := err.GetMetadata(key)
	if !ok {
		return ""
	}
	return fmt.Sprint(value)
}

func outputCheckText(output checkOutput, stdout io.Writer) {
	if !output.Valid {
		fmt.Fprintf(stdout, CheckTextErrorFormat+FmtNewline, output.Error)
		if output.Layer != "" {
			fmt.Fprintf(stdout, CheckTextLayerFormat+FmtNewline, output.Layer)
		}
		if output.Tag != "" {
			fmt.Fprintf(stdout, CheckTextTagFormat+FmtNewline, output.Tag)
		}
		return
	}

	fmt.Fprintln(stdout, CheckTextSuccess)
	fmt.Fprintf(stdout, CheckTextFilesFormat+FmtNewline, len(output.Files))
}
