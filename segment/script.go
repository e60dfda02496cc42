package segment

import "unicode"

// Script is an ISO 15924 four-letter script tag ("Latn", "Arab", "Hani", ...).
// The zero value "" is treated the same as Common.
type Script string

const (
	ScriptCommon    Script = "Zyyy"
	ScriptInherited Script = "Zinh"
	ScriptUnknown   Script = "Zzzz"
)

// rtlScripts lists scripts conventionally written right-to-left.
var rtlScripts = map[Script]bool{
	"Arab": true, "Hebr": true, "Thaa": true, "Syrc": true, "Nkoo": true,
}

// IsRTL reports whether s is conventionally written right-to-left.
func (s Script) IsRTL() bool { return rtlScripts[s] }

// complexScripts lists scripts that require shaper reordering/ligation
// beyond simple left-to-right glyph substitution.
var complexScripts = map[Script]bool{
	"Arab": true, "Hebr": true, "Deva": true, "Beng": true, "Taml": true,
	"Telu": true, "Knda": true, "Mlym": true, "Gujr": true, "Orya": true,
	"Guru": true, "Sinh": true, "Khmr": true, "Laoo": true, "Mymr": true,
	"Tibt": true, "Thai": true,
}

// RequiresComplexShaping reports whether s typically needs contextual
// shaping (reordering, ligatures, mark positioning).
func (s Script) RequiresComplexShaping() bool { return complexScripts[s] }

// unicodeScriptToTag maps the stdlib unicode.Scripts table's names (which
// use full script names, not ISO 15924 tags) to ISO 15924 tags. Only scripts
// reachable via unicode.Scripts and relevant to font fallback are listed;
// anything else falls through to ScriptCommon from DetectScript.
var unicodeScriptToTag = map[string]Script{
	"Latin": "Latn", "Cyrillic": "Cyrl", "Greek": "Grek",
	"Arabic": "Arab", "Hebrew": "Hebr", "Han": "Hani",
	"Hiragana": "Hira", "Katakana": "Kana", "Hangul": "Hang",
	"Devanagari": "Deva", "Thai": "Thai", "Georgian": "Geor",
	"Armenian": "Armn", "Bengali": "Beng", "Tamil": "Taml",
	"Telugu": "Telu", "Kannada": "Knda", "Malayalam": "Mlym",
	"Gujarati": "Gujr", "Oriya": "Orya", "Gurmukhi": "Guru",
	"Sinhala": "Sinh", "Khmer": "Khmr", "Lao": "Laoo",
	"Myanmar": "Mymr", "Tibetan": "Tibt", "Ethiopic": "Ethi",
	"Common": ScriptCommon, "Inherited": ScriptInherited,
}

// scriptOrder fixes iteration order over unicode.Scripts so DetectScript is
// deterministic regardless of Go map iteration order.
var scriptOrder = []string{
	"Common", "Inherited", "Latin", "Cyrillic", "Greek", "Arabic", "Hebrew",
	"Han", "Hiragana", "Katakana", "Hangul", "Devanagari", "Thai", "Georgian",
	"Armenian", "Bengali", "Tamil", "Telugu", "Kannada", "Malayalam",
	"Gujarati", "Oriya", "Gurmukhi", "Sinhala", "Khmer", "Lao", "Myanmar",
	"Tibetan", "Ethiopic",
}

// DetectScript returns the ISO 15924 script tag for r, using the standard
// library's unicode.Scripts range tables rather than a hand-maintained
// range list. Code points outside every tested table (rare, newer scripts)
// return ScriptCommon, so they inherit the script of their context.
func DetectScript(r rune) Script {
	for _, name := range scriptOrder {
		table, ok := unicode.Scripts[name]
		if !ok {
			continue
		}
		if unicode.Is(table, r) {
			return unicodeScriptToTag[name]
		}
	}
	return ScriptCommon
}
