package boltview

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Validation frequencies with special meaning. Any positive duration skips
// the manifest check while an artifact was checked more recently than that.
const (
	// FreqAlwaysCompile ignores the store and recompiles on every call.
	FreqAlwaysCompile time.Duration = -2
	// FreqNeverCheck trusts any stored artifact with a matching compress flag.
	FreqNeverCheck time.Duration = -1
	// FreqCheckAlways verifies the manifest on every call.
	FreqCheckAlways time.Duration = 0
)

// StorageListener is called after a compiled artifact was saved.
type StorageListener func(key, code string)

// ViewOption configures a View.
type ViewOption func(*View)

// WithValidateFreq sets how often stored artifacts are checked against their
// source files.
// Default: FreqCheckAlways
func WithValidateFreq(freq time.Duration) ViewOption {
	return func(v *View) {
		v.freq = freq
	}
}

// WithCompress compiles with whitespace compaction.
func WithCompress(compress bool) ViewOption {
	return func(v *View) {
		v.compress = compress
	}
}

// WithStorageListener sets the callback invoked after every save.
func WithStorageListener(listener StorageListener) ViewOption {
	return func(v *View) {
		v.listener = listener
	}
}

// View serves compiled code for templates, reusing stored artifacts while
// their manifest says the sources are unchanged.
type View struct {
	engine   *Engine
	store    ArtifactStore
	freq     time.Duration
	compress bool
	listener StorageListener
	logger   *zap.Logger
	now      func() time.Time
}

// NewView creates a View. A nil store means a fresh MemoryStore.
func NewView(engine *Engine, store ArtifactStore, opts ...ViewOption) *View {
	if store == nil {
		store = NewMemoryStore()
	}
	v := &View{
		engine: engine,
		store:  store,
		freq:   FreqCheckAlways,
		logger: engine.Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Engine returns the engine used for compiling.
func (v *View) Engine() *Engine {
	return v.engine
}

// Store returns the artifact store.
func (v *View) Store() ArtifactStore {
	return v.store
}

// ValidateFreq returns the configured validation frequency.
func (v *View) ValidateFreq() time.Duration {
	return v.freq
}

// Compressed reports whether the view compiles with compaction.
func (v *View) Compressed() bool {
	return v.compress
}

// ArtifactKey returns the store key for a template path or template text.
func ArtifactKey(template string) string {
	sum := md5.Sum([]byte(template))
	return hex.EncodeToString(sum[:])
}

// Compiled returns compiled code for the template file at path.
func (v *View) Compiled(ctx context.Context, path string) (string, error) {
	resolved, ok := realFile(path)
	if !ok {
		return "", NewTemplateNotFoundError(path, "")
	}
	return v.compiled(ctx, ArtifactKey(resolved), resolved, func() (string, error) {
		return v.engine.Compile(resolved, v.compress)
	})
}

// CompiledString returns compiled code for template text. The key is derived
// from the text alone.
func (v *View) CompiledString(ctx context.Context, text, virtualDir string) (string, error) {
	return v.compiled(ctx, ArtifactKey(text), StringTemplateIdentity, func() (string, error) {
		return v.engine.CompileString(text, virtualDir, v.compress)
	})
}

// Expired reports whether the artifact stored under key would be recompiled.
func (v *View) Expired(ctx context.Context, key string) (bool, error) {
	artifact, err := v.store.Get(ctx, key)
	if IsArtifactNotFound(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !v.fresh(ctx, artifact), nil
}

func (v *View) compiled(ctx context.Context, key, template string, compile func() (string, error)) (string, error) {
	if v.freq != FreqAlwaysCompile {
		artifact, err := v.store.Get(ctx, key)
		switch {
		case err == nil:
			if v.fresh(ctx, artifact) {
				v.logger.Debug(LogMsgArtifactHit, zap.String(LogFieldKey, key), zap.String(LogFieldLayer, template))
				return artifact.Code, nil
			}
			v.logger.Debug(LogMsgArtifactStale, zap.String(LogFieldKey, key), zap.String(LogFieldLayer, template))
		case !IsArtifactNotFound(err):
			return "", wrapStorageError(err, key)
		}
	}

	code, err := compile()
	if err != nil {
		return "", err
	}

	artifact := &Artifact{
		Key:       key,
		Template:  template,
		Code:      code,
		Compress:  v.compress,
		CheckedAt: v.now(),
	}
	if err := v.store.Save(ctx, artifact); err != nil {
		return "", wrapStorageError(err, key)
	}
	v.logger.Debug(LogMsgArtifactSaved,
		zap.String(LogFieldKey, key),
		zap.String(LogFieldLayer, template),
		zap.Int(LogFieldBytes, len(code)),
	)
	if v.listener != nil {
		v.listener(key, code)
	}
	return code, nil
}

// fresh applies the validation policy to a stored artifact. A successful
// manifest check under a positive frequency records the check time.
func (v *View) fresh(ctx context.Context, artifact *Artifact) bool {
	if v.freq == FreqAlwaysCompile || artifact.Compress != v.compress {
		return false
	}
	if v.freq == FreqNeverCheck {
		return true
	}
	now := v.now()
	if v.freq > 0 && now.Sub(artifact.CheckedAt) < v.freq {
		return true
	}

	manifest, err := ParseManifest(artifact.Code)
	if err != nil || !manifest.Fresh(v.engine.HomeDir(), v.compress) {
		return false
	}
	if v.freq > 0 {
		artifact.CheckedAt = now
		if err := v.store.Save(ctx, artifact); err != nil {
			v.logger.Warn(LogMsgArtifactTouchFailed, zap.String(LogFieldKey, artifact.Key), zap.Error(err))
		}
	}
	return true
}

// wrapStorageError attaches cuserr classification to a store failure.
func wrapStorageError(err error, key string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewStorageFailedError(key, err)
}
