package boltview

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingListener records every key passed to a StorageListener.
type countingListener struct {
	keys []string
}

func (l *countingListener) listen(key, _ string) {
	l.keys = append(l.keys, key)
}

type failingStore struct {
	*MemoryStore
	err error
}

func (s *failingStore) Get(context.Context, string) (*Artifact, error) {
	return nil, s.err
}

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", ArtifactKey("hello"))
	assert.Len(t, ArtifactKey(""), 32)
}

func TestNewView_Defaults(t *testing.T) {
	engine := MustNew()
	view := NewView(engine, nil)
	assert.Same(t, engine, view.Engine())
	assert.IsType(t, &MemoryStore{}, view.Store())
	assert.Equal(t, FreqCheckAlways, view.ValidateFreq())
	assert.False(t, view.Compressed())

	view = NewView(engine, nil, WithValidateFreq(time.Minute), WithCompress(true))
	assert.Equal(t, time.Minute, view.ValidateFreq())
	assert.True(t, view.Compressed())
}

func TestView_Compiled(t *testing.T) {
	ctx := context.Background()
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "<p>{$x}</p>")

	var listener countingListener
	view := NewView(MustNew(), nil, WithStorageListener(listener.listen))

	code, err := view.Compiled(ctx, page)
	require.NoError(t, err)
	assert.Contains(t, code, "<p><?php echo $x;?></p>")
	assert.Equal(t, []string{ArtifactKey(page)}, listener.keys)

	again, err := view.Compiled(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, code, again)
	assert.Len(t, listener.keys, 1)

	artifact, err := view.Store().Get(ctx, ArtifactKey(page))
	require.NoError(t, err)
	assert.Equal(t, page, artifact.Template)
	assert.Equal(t, code, artifact.Code)
	assert.False(t, artifact.Compress)

	writeFile(t, dir, "page.html", "<p>{$y}</p>")
	changed, err := view.Compiled(ctx, page)
	require.NoError(t, err)
	assert.Contains(t, changed, "<?php echo $y;?>")
	assert.Len(t, listener.keys, 2)
}

func TestView_Compiled_IncludedFileChange(t *testing.T) {
	ctx := context.Background()
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "{template part/}")
	writeFile(t, dir, "part.html", "one")

	view := NewView(MustNew(), nil)
	code, err := view.Compiled(ctx, page)
	require.NoError(t, err)
	assert.Contains(t, code, "one")

	writeFile(t, dir, "part.html", "two")
	code, err = view.Compiled(ctx, page)
	require.NoError(t, err)
	assert.Contains(t, code, "two")
}

func TestView_Compiled_IncludeOutsideHome(t *testing.T) {
	ctx := context.Background()
	home := realTempDir(t)
	shared := writeFile(t, realTempDir(t), "shared.html", "shared")
	page := writeFile(t, home, "page.html", "{template #"+shared+" /}")

	var listener countingListener
	view := NewView(MustNew(WithHomeDir(home)), nil, WithStorageListener(listener.listen))
	for i := 0; i < 3; i++ {
		code, err := view.Compiled(ctx, page)
		require.NoError(t, err)
		assert.Contains(t, code, "shared")
	}
	assert.Len(t, listener.keys, 1)
}

func TestView_Compiled_ResolvesPath(t *testing.T) {
	ctx := context.Background()
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "x")

	view := NewView(MustNew(), nil)
	_, err := view.Compiled(ctx, filepath.Join(dir, "sub", "..", "page.html"))
	require.NoError(t, err)

	keys, err := view.Store().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ArtifactKey(page)}, keys)
}

func TestView_FreqAlwaysCompile(t *testing.T) {
	ctx := context.Background()
	page := writeFile(t, realTempDir(t), "page.html", "x")

	var listener countingListener
	view := NewView(MustNew(), nil, WithValidateFreq(FreqAlwaysCompile), WithStorageListener(listener.listen))
	for i := 0; i < 3; i++ {
		_, err := view.Compiled(ctx, page)
		require.NoError(t, err)
	}
	assert.Len(t, listener.keys, 3)

	expired, err := view.Expired(ctx, ArtifactKey(page))
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestView_FreqNeverCheck(t *testing.T) {
	ctx := context.Background()
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "old")

	view := NewView(MustNew(), nil, WithValidateFreq(FreqNeverCheck))
	code, err := view.Compiled(ctx, page)
	require.NoError(t, err)

	writeFile(t, dir, "page.html", "new")
	again, err := view.Compiled(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, code, again)
	assert.Contains(t, again, "old")
}

func TestView_CompressMismatch(t *testing.T) {
	ctx := context.Background()
	page := writeFile(t, realTempDir(t), "page.html", "<div>  x  </div>")
	store := NewMemoryStore()

	plain := NewView(MustNew(), store, WithValidateFreq(FreqNeverCheck))
	_, err := plain.Compiled(ctx, page)
	require.NoError(t, err)

	var listener countingListener
	compressed := NewView(MustNew(), store, WithValidateFreq(FreqNeverCheck), WithCompress(true), WithStorageListener(listener.listen))
	expired, err := compressed.Expired(ctx, ArtifactKey(page))
	require.NoError(t, err)
	assert.True(t, expired)

	code, err := compressed.Compiled(ctx, page)
	require.NoError(t, err)
	assert.Len(t, listener.keys, 1)

	manifest, err := ParseManifest(code)
	require.NoError(t, err)
	assert.True(t, manifest.Compress)

	artifact, err := store.Get(ctx, ArtifactKey(page))
	require.NoError(t, err)
	assert.True(t, artifact.Compress)
}

func TestView_PositiveFreq(t *testing.T) {
	ctx := context.Background()
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "old")
	key := ArtifactKey(page)

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	view := NewView(MustNew(), nil, WithValidateFreq(time.Minute))
	view.now = func() time.Time { return now }

	_, err := view.Compiled(ctx, page)
	require.NoError(t, err)
	artifact, err := view.Store().Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, start.Equal(artifact.CheckedAt))

	t.Run("unchanged source touches the artifact", func(t *testing.T) {
		now = start.Add(2 * time.Minute)
		expired, err := view.Expired(ctx, key)
		require.NoError(t, err)
		assert.False(t, expired)

		artifact, err := view.Store().Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, now.Equal(artifact.CheckedAt))
	})

	t.Run("changed source is trusted inside the interval", func(t *testing.T) {
		writeFile(t, dir, "page.html", "new")
		now = now.Add(30 * time.Second)
		code, err := view.Compiled(ctx, page)
		require.NoError(t, err)
		assert.Contains(t, code, "old")
	})

	t.Run("changed source recompiles after the interval", func(t *testing.T) {
		now = now.Add(time.Minute)
		code, err := view.Compiled(ctx, page)
		require.NoError(t, err)
		assert.Contains(t, code, "new")
	})
}

func TestView_CheckAlwaysDoesNotTouch(t *testing.T) {
	ctx := context.Background()
	page := writeFile(t, realTempDir(t), "page.html", "x")
	key := ArtifactKey(page)

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	view := NewView(MustNew(), nil)
	view.now = func() time.Time { return now }

	_, err := view.Compiled(ctx, page)
	require.NoError(t, err)

	now = start.Add(time.Hour)
	_, err = view.Compiled(ctx, page)
	require.NoError(t, err)

	artifact, err := view.Store().Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, start.Equal(artifact.CheckedAt))
}

func TestView_CompiledString(t *testing.T) {
	ctx := context.Background()
	dir := realTempDir(t)
	writeFile(t, dir, "part.html", "part")

	var listener countingListener
	view := NewView(MustNew(), nil, WithStorageListener(listener.listen))

	text := "{template part/}{$x}"
	code, err := view.CompiledString(ctx, text, dir)
	require.NoError(t, err)
	assert.Contains(t, code, "part")
	assert.Contains(t, code, "echo $x;")

	artifact, err := view.Store().Get(ctx, ArtifactKey(text))
	require.NoError(t, err)
	assert.Equal(t, StringTemplateIdentity, artifact.Template)

	again, err := view.CompiledString(ctx, text, dir)
	require.NoError(t, err)
	assert.Equal(t, code, again)
	assert.Len(t, listener.keys, 1)

	writeFile(t, dir, "part.html", "changed")
	again, err = view.CompiledString(ctx, text, dir)
	require.NoError(t, err)
	assert.Contains(t, again, "changed")
	assert.Len(t, listener.keys, 2)
}

func TestView_Expired(t *testing.T) {
	ctx := context.Background()
	dir := realTempDir(t)
	page := writeFile(t, dir, "page.html", "x")
	key := ArtifactKey(page)
	view := NewView(MustNew(), nil)

	expired, err := view.Expired(ctx, key)
	require.NoError(t, err)
	assert.True(t, expired)

	_, err = view.Compiled(ctx, page)
	require.NoError(t, err)
	expired, err = view.Expired(ctx, key)
	require.NoError(t, err)
	assert.False(t, expired)

	writeFile(t, dir, "page.html", "y")
	expired, err = view.Expired(ctx, key)
	require.NoError(t, err)
	assert.True(t, expired)

	require.NoError(t, view.Store().Save(ctx, &Artifact{Key: "broken", Code: "no manifest"}))
	expired, err = view.Expired(ctx, "broken")
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestView_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing template", func(t *testing.T) {
		view := NewView(MustNew(), nil)
		_, err := view.Compiled(ctx, filepath.Join(t.TempDir(), "none.html"))
		require.Error(t, err)
		var customErr *cuserr.CustomError
		require.True(t, errors.As(err, &customErr))
	})

	t.Run("compile errors are not stored", func(t *testing.T) {
		view := NewView(MustNew(), nil)
		_, err := view.CompiledString(ctx, "{if $a}", "")
		require.Error(t, err)
		keys, err := view.Store().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("store failure", func(t *testing.T) {
		cause := errors.New("connection reset")
		store := &failingStore{MemoryStore: NewMemoryStore(), err: cause}
		view := NewView(MustNew(), store)

		_, err := view.CompiledString(ctx, "x", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgStorageFailed)
		var customErr *cuserr.CustomError
		require.True(t, errors.As(err, &customErr))
		key, ok := customErr.GetMetadata(MetaKeyKey)
		assert.True(t, ok)
		assert.Equal(t, ArtifactKey("x"), key)

		_, err = view.Expired(ctx, "k")
		assert.Equal(t, cause, err)
	})

	t.Run("cancelled context passes through", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		view := NewView(MustNew(), nil)
		_, err := view.CompiledString(cancelled, "x", "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
