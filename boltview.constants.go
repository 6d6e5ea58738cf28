package boltview

// Built-in structural tag names
const (
	TagNameTemplate = "template"
	TagNameLoop     = "loop"
)

// ReservedTagNames can never be claimed by a registered compiler. literal and php
// are shielded before extraction and the conditional keywords belong to the flat pass.
var ReservedTagNames = []string{TagNameTemplate, TagNameLoop, "literal", "php", "if", "elseif", "else"}

// Attribute names understood by the built-in tags
const (
	AttrStart     = "start"
	AttrEnd       = "end"
	AttrStep      = "step"
	AttrKey       = "key"
	AttrExtension = "extension"
)

// Built-in tag defaults
const (
	DefaultLoopBound = "0"
	DefaultLoopStep  = "1"
	DefaultLoopKey   = "i"
	DefaultMaxDepth  = 64
)

// Include path markers
const (
	// AbsolutePathMarker prefixes an include path that must not be joined with the
	// including layer's directory.
	AbsolutePathMarker = "#"

	// InnerPlaceholder is replaced by the including tag's body inside an included template.
	InnerPlaceholder = "{$inner}"

	// StringTemplateIdentity names a layer compiled from a string in error messages.
	StringTemplateIdentity = "StringTemplate"
)

// Host code emitted by the built-in tags
const (
	hostCountedLoopFmt  = "<?php for ($%[1]s = %[2]s; $%[1]s %[3]s %[4]s; $%[1]s %[5]s= %[6]s) { ?>"
	hostForeachFmt      = "<?php foreach(%s as %s) { ?>"
	hostForeachPairFmt  = "<?php foreach(%s as %s => %s) { ?>"
	hostLoopEnd         = "<?php } ?>"
	hostIncludeOpen     = "<?php \n"
	hostParentPush      = "$__parent[] = $parent;\n"
	hostParentInit      = "$__parent = [];\n"
	hostParentAssignFmt = "$parent = %s;\n?>"
	hostParentPop       = "$parent = array_pop($__parent);"
	hostParentUnset     = "unset($parent, $__parent);"
	hostIncludeClose    = "\n?>"
)

// Log message constants
const (
	LogMsgEngineCreated       = "boltview engine created"
	LogMsgCompileStart        = "compile started"
	LogMsgCompileEnd          = "compile finished"
	LogMsgCompileFailed       = "compile failed"
	LogMsgLayerPush           = "layer pushed"
	LogMsgLayerPop            = "layer popped"
	LogMsgArtifactHit         = "compiled artifact reused"
	LogMsgArtifactStale       = "compiled artifact stale"
	LogMsgArtifactSaved       = "compiled artifact saved"
	LogMsgArtifactTouchFailed = "failed to record artifact check"
	LogMsgStoreOpened         = "artifact store opened"
	LogMsgMigrationApplied    = "migration applied"
)

// Log field constants
const (
	LogFieldLayer    = "layer"
	LogFieldDepth    = "depth"
	LogFieldCompress = "compress"
	LogFieldBytes    = "bytes"
	LogFieldFiles    = "files"
	LogFieldKey      = "key"
	LogFieldDriver   = "driver"
	LogFieldVersion  = "version"
)
