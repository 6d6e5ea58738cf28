package boltview

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-boltview/internal"
	"github.com/itsatony/go-cuserr"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	// Structural errors
	ErrFmtTagNotClosed         = `Tag "%s" not closed`
	ErrFmtStartTagNotFound     = `"%s" start tag not found`
	ErrFmtConditionalMarker    = `Conditional statement is not closed: "%s"`
	ErrFmtLoopValue            = `Compile tag "{loop %s}" failed`
	ErrFmtCompilerFailed       = `Compile tag "%s" failed`
	ErrFmtLayerSuffix          = " @[%s]"
	ErrMsgConditionalNotClosed = "Conditional statement is not closed"

	// Template errors
	ErrFmtTemplateNotFound = "Template [%s] not found"
	ErrFmtCircularTemplate = "Circular template [%s]"
	ErrFmtMaxDepth         = "Template [%s] exceeds maximum include depth %d"
	ErrMsgReadTemplate     = "failed to read template"

	// Configuration errors
	ErrMsgHomeDirNotExist   = "Home dir not exist"
	ErrFmtVirtualNotFound   = "Virtual path [%s] not found"
	ErrMsgConfigRead        = "failed to read config file"
	ErrMsgConfigParse       = "failed to parse config"
	ErrMsgConfigInvalidFreq = "invalid validate_freq duration"
	ErrMsgConfigStorage     = "failed to open artifact store"

	// Cache errors
	ErrMsgStorageFailed = "artifact store operation failed"
)

// Error code constants for categorization
const (
	ErrCodeCompile  = "BOLTVIEW_COMPILE"
	ErrCodeTemplate = "BOLTVIEW_TEMPLATE"
	ErrCodeConfig   = "BOLTVIEW_CONFIG"
	ErrCodeRegistry = "BOLTVIEW_REGISTRY"
	ErrCodeStorage  = "BOLTVIEW_STORAGE"
)

// Metadata key constants
const (
	MetaKeyTag   = "tag"
	MetaKeyLayer = "layer"
	MetaKeyPath  = "path"
	MetaKeyDepth = "depth"
	MetaKeyValue = "value"
	MetaKeyKey   = "key"
)

func withLayer(msg, layer string) string {
	if layer == "" {
		return msg
	}
	return msg + fmt.Sprintf(ErrFmtLayerSuffix, layer)
}

// NewTagNotClosedError reports an open structural tag without a matching close tag.
// marker is the full open tag text, e.g. {loop $items $item}.
func NewTagNotClosedError(marker, layer string) error {
	return cuserr.NewValidationError(ErrCodeCompile, withLayer(fmt.Sprintf(ErrFmtTagNotClosed, marker), layer)).
		WithMetadata(MetaKeyTag, marker).
		WithMetadata(MetaKeyLayer, layer)
}

// NewStartTagNotFoundError reports a close tag with nothing open.
func NewStartTagNotFoundError(marker, layer string) error {
	return cuserr.NewValidationError(ErrCodeCompile, withLayer(fmt.Sprintf(ErrFmtStartTagNotFound, marker), layer)).
		WithMetadata(MetaKeyTag, marker).
		WithMetadata(MetaKeyLayer, layer)
}

// NewConditionalError reports an unbalanced {if} block.
func NewConditionalError(marker, layer string) error {
	msg := ErrMsgConditionalNotClosed
	if marker != "" {
		msg = fmt.Sprintf(ErrFmtConditionalMarker, marker)
	}
	return cuserr.NewValidationError(ErrCodeCompile, withLayer(msg, layer)).
		WithMetadata(MetaKeyTag, marker).
		WithMetadata(MetaKeyLayer, layer)
}

// NewLoopValueError reports a collection loop whose value has the wrong shape.
func NewLoopValueError(value, layer string) error {
	return cuserr.NewValidationError(ErrCodeCompile, withLayer(fmt.Sprintf(ErrFmtLoopValue, value), layer)).
		WithMetadata(MetaKeyTag, TagNameLoop).
		WithMetadata(MetaKeyValue, value).
		WithMetadata(MetaKeyLayer, layer)
}

// NewCompilerError wraps an error returned by a registered tag compiler.
func NewCompilerError(tagName, layer string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeCompile, withLayer(fmt.Sprintf(ErrFmtCompilerFailed, tagName), layer)).
		WithMetadata(MetaKeyTag, tagName).
		WithMetadata(MetaKeyLayer, layer)
}

// NewTemplateNotFoundError reports an include or root template that does not exist.
// layer is empty for the root template.
func NewTemplateNotFoundError(path, layer string) error {
	return cuserr.NewValidationError(ErrCodeTemplate, withLayer(fmt.Sprintf(ErrFmtTemplateNotFound, path), layer)).
		WithMetadata(MetaKeyPath, path).
		WithMetadata(MetaKeyLayer, layer)
}

// NewCircularTemplateError reports a template that includes itself through its ancestors.
func NewCircularTemplateError(path, layer string) error {
	return cuserr.NewValidationError(ErrCodeTemplate, withLayer(fmt.Sprintf(ErrFmtCircularTemplate, path), layer)).
		WithMetadata(MetaKeyPath, path).
		WithMetadata(MetaKeyLayer, layer)
}

// NewMaxDepthError reports an include chain deeper than the configured limit.
func NewMaxDepthError(path, layer string, maxDepth int) error {
	return cuserr.NewValidationError(ErrCodeTemplate, withLayer(fmt.Sprintf(ErrFmtMaxDepth, path, maxDepth), layer)).
		WithMetadata(MetaKeyPath, path).
		WithMetadata(MetaKeyLayer, layer).
		WithMetadata(MetaKeyDepth, strconv.Itoa(maxDepth))
}

// NewReadTemplateError wraps a failed read of a template file.
func NewReadTemplateError(path string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeTemplate, ErrMsgReadTemplate).
		WithMetadata(MetaKeyPath, path)
}

// NewHomeDirError reports a home directory that cannot be resolved.
func NewHomeDirError(dir string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgHomeDirNotExist).
		WithMetadata(MetaKeyPath, dir)
}

// NewVirtualDirError reports a virtual directory that cannot be resolved.
func NewVirtualDirError(dir string) error {
	return cuserr.NewValidationError(ErrCodeConfig, fmt.Sprintf(ErrFmtVirtualNotFound, dir)).
		WithMetadata(MetaKeyPath, dir)
}

// NewConfigError wraps a configuration load failure.
func NewConfigError(msg, path string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeConfig, msg)
	}
	return err.WithMetadata(MetaKeyPath, path)
}

// NewStorageFailedError wraps an artifact store failure seen by a View.
func NewStorageFailedError(key string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeStorage, ErrMsgStorageFailed).
		WithMetadata(MetaKeyKey, key)
}

// NewRegistryError reports an invalid compiler registration.
func NewRegistryError(msg, names string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, msg).
		WithMetadata(MetaKeyTag, names)
}

// wrapScanError converts an error from one of the flat text passes into a
// structured compile error that names the active layer.
func wrapScanError(err error, layer string) error {
	var scanErr *internal.ScanError
	if !errors.As(err, &scanErr) {
		return err
	}
	switch scanErr.Message {
	case internal.ErrMsgConditionalNotClosed:
		return NewConditionalError(scanErr.Marker, layer)
	case internal.ErrMsgStartTagNotFound:
		return NewStartTagNotFoundError(scanErr.Marker, layer)
	default:
		return NewTagNotClosedError(scanErr.Marker, layer)
	}
}
