package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/itsatony/go-boltview"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// compileConfig holds parsed compile command configuration
type compileConfig struct {
	templatePath string
	virtualDir   string
	compress     bool
	provider     string
	outputPath   string
	homeDir      string
	configPath   string
	verbose      bool
}

func runCompile(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseCompileFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidArguments, err)
		return ExitCodeUsageError
	}

	fileCfg, err := loadConfig(cfg.configPath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgConfigFailed, err)
		return ExitCodeInputError
	}

	var source []byte
	if cfg.templatePath == InputSourceStdin {
		if source, err = readInput(cfg.templatePath, stdin); err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
			return ExitCodeInputError
		}
	}

	opts := engineOptions(cfg.homeDir, cfg.provider)
	if cfg.verbose {
		opts = append(opts, boltview.WithLogger(newStderrLogger(stderr)))
	}
	engine, err := boltview.NewFromConfig(fileCfg, opts...)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEngineFailed, err)
		return ExitCodeError
	}

	compress := cfg.compress || fileCfg.Compress
	var code string
	if fileCfg.Storage.Driver != "" {
		code, err = compileWithView(engine, fileCfg, compress, cfg.templatePath, string(source), cfg.virtualDir)
	} else if source != nil {
		code, err = engine.CompileString(string(source), cfg.virtualDir, compress)
	} else {
		code, err = engine.Compile(cfg.templatePath, compress)
	}
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgCompileFailed, err)
		return ExitCodeCompileError
	}

	if err := writeOutput(cfg.outputPath, []byte(code), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

// compileWithView serves the template through the configured artifact store.
func compileWithView(engine *boltview.Engine, cfg *boltview.Config, compress bool, path, source, virtualDir string) (string, error) {
	view, err := boltview.NewViewFromConfig(engine, cfg, boltview.WithCompress(compress))
	if err != nil {
		return "", err
	}
	defer view.Store().Close()

	ctx := context.Background()
	if path == InputSourceStdin {
		return view.CompiledString(ctx, source, virtualDir)
	}
	return view.Compiled(ctx, path)
}

func parseCompileFlags(args []string) (*compileConfig, error) {
	fs := flag.NewFlagSet(CmdNameCompile, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &compileConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.virtualDir, FlagDir, "", "")
	fs.StringVar(&cfg.virtualDir, FlagDirShort, "", "")
	fs.BoolVar(&cfg.compress, FlagCompress, false, "")
	fs.BoolVar(&cfg.compress, FlagCompressShort, false, "")
	fs.StringVar(&cfg.provider, FlagProvider, "", "")
	fs.StringVar(&cfg.provider, FlagProviderShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.StringVar(&cfg.homeDir, FlagHome, "", "")
	fs.StringVar(&cfg.configPath, FlagConfig, "", "")
	fs.BoolVar(&cfg.verbose, FlagVerbose, false, "")
	fs.BoolVar(&cfg.verbose, FlagVerboseShort, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	return cfg, nil
}

// loadConfig reads the config file, or returns an empty config when no path
// was given.
func loadConfig(path string) (*boltview.Config, error) {
	if path == "" {
		return &boltview.Config{}, nil
	}
	return boltview.LoadConfig(path)
}

// engineOptions turns command line overrides into engine options.
func engineOptions(homeDir, provider string) []boltview.Option {
	var opts []boltview.Option
	if homeDir != "" {
		opts = append(opts, boltview.WithHomeDir(homeDir))
	}
	if provider != "" {
		opts = append(opts, boltview.WithDataProvider(provider))
	}
	return opts
}

func newStderrLogger(stderr io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}
