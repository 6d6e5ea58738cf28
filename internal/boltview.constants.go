package internal

// Markup characters
const (
	CharSlash       = '/'
	CharEquals      = '='
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharDollar      = '$'
)

// AttrSpaceChars are the delimiters between attribute tokens.
const AttrSpaceChars = " \x00\t\r\n\x0B"

// AttrKeyValue is the synthetic attribute that carries a tag's leading free text.
const AttrKeyValue = "__value__"

// Shielded region tag names
const (
	TagNameLiteral = "literal"
	TagNamePHP     = "php"
)

// Placeholder kinds. A placeholder renders as <!--###__BOLT_<KIND>__<index>###-->.
const (
	PlaceholderLiteral    = "LITERAL"
	PlaceholderPHPCode    = "PHP_CODE"
	PlaceholderTaglib     = "TAGLIB"
	PlaceholderJavaScript = "JAVASCRIPT"

	placeholderPrefix = "<!--###__BOLT_"
	placeholderInfix  = "__"
	placeholderSuffix = "###-->"
)

// Host code fragments emitted by the text passes
const (
	HostOpen         = "<?php"
	HostOpenEcho     = "<?="
	HostEchoFmt      = "<?php echo %s;?>"
	HostIssetFmt     = "isset(%[1]s) ? %[1]s : %[2]s"
	HostIfFmt        = "<?php if (%s) { ?>"
	HostElseIfFmt    = "<?php } elseif (%s) { ?>"
	HostElse         = "<?php } else { ?>"
	HostEndIf        = "<?php }?>"
	HostAlwaysTrue   = "1==1"
	HostRawCodeFmt   = "<?php\n%s\n?>"
	HostDataBlockVar = "$__template__tag__block__"
	HostDataCallFmt  = "<?php " + HostDataBlockVar + " = %s('%s', %s, %s); "
	HostDataEcho     = "echo is_array(" + HostDataBlockVar + ") ? 'Array' : (string) " +
		HostDataBlockVar + "; unset(" + HostDataBlockVar + ");?>"
	HostDataLoopFmt = "foreach((array) " + HostDataBlockVar + " as $%s=>$%s) {  ?>"
	HostDataEnd     = "<?php } unset(" + HostDataBlockVar + ");?>"
	HostTrue        = "true"
	HostFalse       = "false"
	HostEmptyArray  = "[]"
)

// Data tag loop variable names, overridable through the key and field attributes
const (
	DataAttrKey      = "key"
	DataAttrField    = "field"
	DataDefaultKey   = "key"
	DataDefaultField = "field"
)

// Conditional marker keywords
const (
	CondIf     = "if"
	CondElseIf = "elseif"
	CondElse   = "else"
)

// Manifest header
const (
	ManifestOpen        = "<?php /*"
	ManifestClose       = "*/ ?>"
	ManifestCompressKey = "__compress__"
)

// Compaction
const (
	CompactSeparator = "  "
)

// Scan error messages
const (
	ErrMsgConditionalNotClosed = "Conditional statement is not closed"
	ErrMsgTagNotClosed         = "tag not closed"
	ErrMsgStartTagNotFound     = "start tag not found"
	ErrMsgManifestMalformed    = "manifest header is malformed"
)
