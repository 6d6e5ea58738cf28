package boltview

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/itsatony/go-boltview/internal"
	"go.uber.org/zap"
)

// Engine compiles template markup into PHP. Registration and settings are
// safe for concurrent use; compile calls are serialized and each one owns its
// own Compilation state.
type Engine struct {
	registry     *internal.Registry
	compileMu    sync.Mutex // serializes compile calls
	settingsMu   sync.RWMutex
	homeDir      string
	dataProvider string
	resolvers    []PathResolver
	config       *engineConfig
	logger       *zap.Logger
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		registry:     internal.NewRegistry(logger, ReservedTagNames...),
		dataProvider: config.dataProvider,
		resolvers:    append([]PathResolver(nil), config.resolvers...),
		config:       config,
		logger:       logger,
	}
	if err := e.SetHomeDir(config.homeDir); err != nil {
		return nil, err
	}
	for _, compiler := range config.compilers {
		if err := e.Register(compiler); err != nil {
			return nil, err
		}
	}

	logger.Debug(LogMsgEngineCreated,
		zap.String(MetaKeyPath, e.homeDir),
		zap.Int(LogFieldDepth, config.maxDepth),
	)
	return e, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Register adds a tag compiler. Names already claimed by an earlier compiler
// are skipped; the first registration of a name wins.
func (e *Engine) Register(compiler TagCompiler) error {
	if compiler == nil {
		return NewRegistryError(internal.ErrMsgNilCompiler, "")
	}
	if _, err := e.registry.Register(compiler); err != nil {
		return NewRegistryError(internal.ErrMsgEmptyTagNames, compiler.TagNames())
	}
	return nil
}

// MustRegister adds a tag compiler and panics if registration fails.
func (e *Engine) MustRegister(compiler TagCompiler) {
	if err := e.Register(compiler); err != nil {
		panic(err)
	}
}

// Compiler returns the compiler owning a tag name or alias.
func (e *Engine) Compiler(name string) (TagCompiler, bool) {
	compiler, ok := e.registry.Get(name)
	if !ok {
		return nil, false
	}
	tc, ok := compiler.(TagCompiler)
	return tc, ok
}

// TagNames returns every structural tag name the engine recognizes, longest
// first.
func (e *Engine) TagNames() []string {
	names := append(e.registry.Names(), TagNameTemplate, TagNameLoop)
	internal.SortByLength(names)
	return names
}

// AddPathResolver appends a {template} path hook.
func (e *Engine) AddPathResolver(resolver PathResolver) {
	if resolver == nil {
		return
	}
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.resolvers = append(e.resolvers, resolver)
}

// SetHomeDir sets the directory manifest paths are recorded relative to. An
// empty dir clears it.
func (e *Engine) SetHomeDir(dir string) error {
	resolved := ""
	if dir != "" {
		var ok bool
		if resolved, ok = realDir(dir); !ok {
			return NewHomeDirError(dir)
		}
	}
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.homeDir = resolved
	return nil
}

// HomeDir returns the canonical home directory, or "".
func (e *Engine) HomeDir() string {
	e.settingsMu.RLock()
	defer e.settingsMu.RUnlock()
	return e.homeDir
}

// SetDataProvider sets the host function {@name} data tags call.
func (e *Engine) SetDataProvider(provider string) {
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.dataProvider = provider
}

// DataProvider returns the configured data tag provider.
func (e *Engine) DataProvider() string {
	e.settingsMu.RLock()
	defer e.settingsMu.RUnlock()
	return e.dataProvider
}

// MaxDepth returns the configured maximum include depth.
func (e *Engine) MaxDepth() int {
	return e.config.maxDepth
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Compile compiles the template file at path. The output starts with the
// manifest header line.
func (e *Engine) Compile(path string, compress bool) (string, error) {
	resolved, ok := realFile(path)
	if !ok {
		return "", NewTemplateNotFoundError(path, "")
	}
	source, err := os.ReadFile(resolved)
	if err != nil {
		return "", NewReadTemplateError(resolved, err)
	}
	return e.compile(newFileLayer(resolved, string(source)), compress)
}

// CompileString compiles template text. virtualDir, when set, is the
// directory relative {template} paths resolve against and must exist.
func (e *Engine) CompileString(source, virtualDir string, compress bool) (string, error) {
	if virtualDir != "" {
		resolved, ok := realDir(virtualDir)
		if !ok {
			return "", NewVirtualDirError(virtualDir)
		}
		virtualDir = resolved
	}
	return e.compile(newStringLayer(source, virtualDir), compress)
}

func (e *Engine) compile(root *Layer, compress bool) (string, error) {
	e.compileMu.Lock()
	defer e.compileMu.Unlock()

	e.logger.Debug(LogMsgCompileStart,
		zap.String(LogFieldLayer, root.Identity()),
		zap.Bool(LogFieldCompress, compress),
		zap.Int(LogFieldBytes, len(root.Source)),
	)

	c := e.newCompilation()
	code, err := c.run(root, compress)
	if err != nil {
		e.logger.Debug(LogMsgCompileFailed, zap.String(LogFieldLayer, root.Identity()), zap.Error(err))
		return "", err
	}

	e.logger.Debug(LogMsgCompileEnd,
		zap.String(LogFieldLayer, root.Identity()),
		zap.Int(LogFieldBytes, len(code)),
		zap.Int(LogFieldFiles, len(c.files)),
	)
	return code, nil
}

func (e *Engine) newCompilation() *Compilation {
	e.settingsMu.RLock()
	defer e.settingsMu.RUnlock()

	compilers := make([]TagCompiler, 0, e.registry.Count())
	for _, compiler := range e.registry.Compilers() {
		if tc, ok := compiler.(TagCompiler); ok {
			compilers = append(compilers, tc)
		}
	}
	return &Compilation{
		engine:       e,
		shield:       internal.NewShield(),
		current:      noParent,
		tagPattern:   structuralPattern(e.TagNames()),
		compilers:    compilers,
		resolvers:    append([]PathResolver(nil), e.resolvers...),
		homeDir:      e.homeDir,
		dataProvider: e.dataProvider,
		maxDepth:     e.config.maxDepth,
		logger:       e.logger,
	}
}

// realFile canonicalizes path and reports whether it names a regular file.
func realFile(path string) (string, bool) {
	resolved, info, ok := realPath(path)
	if !ok || info.IsDir() {
		return "", false
	}
	return resolved, true
}

// realDir canonicalizes dir and reports whether it names a directory.
func realDir(dir string) (string, bool) {
	resolved, info, ok := realPath(dir)
	if !ok || !info.IsDir() {
		return "", false
	}
	return resolved, true
}

func realPath(path string) (string, os.FileInfo, bool) {
	if strings.TrimSpace(path) == "" {
		return "", nil, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, false
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", nil, false
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, false
	}
	return resolved, info, true
}
