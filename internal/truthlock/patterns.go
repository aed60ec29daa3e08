package truthlock

import (
	"regexp"
	"strings"
)

// wordBoundary stands in for \b. RE2's \b only knows ASCII word characters;
// here letters and digits of any script count as word characters.
const wordBoundary = `(?:^|$|[^\p{L}\p{N}_])`

// fabricationPattern is a phrase that asks for made-up content.
type fabricationPattern struct {
	Source string
	re     *regexp.Regexp
}

// riskPattern maps an expression to a risk domain tag.
type riskPattern struct {
	Source string
	Domain string
	re     *regexp.Regexp
}

// Source strings are recorded verbatim in signals, so they keep the
// \b notation of the documents earlier releases produced.
var fabricationPatterns = []fabricationPattern{
	newFabrication(`\bmake up\b`),
	newFabrication(`\bpretend\b`),
	newFabrication(`\bfake sources?\b`),
	newFabrication(`\bfabricate\b`),
	newFabrication(`\binvent\b`),
	newFabrication(`\bmake it look real\b`),
}

var riskPatterns = []riskPattern{
	newRisk(`\bmedical\b|\bdiagnos(e|is)\b|\btreatment\b`, "MEDICAL"),
	newRisk(`\blegal\b|\blawsuit\b|\bsue\b|\bcontract\b`, "LEGAL"),
	newRisk(`\binvestment\b|\bstocks?\b|\bcrypto\b|\bfinancial advice\b`, "FINANCE"),
}

// space is Unicode whitespace, including the C0 separators FS, GS, RS
// and US that RE2's \s leaves out.
const space = `[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]`

var (
	// factLineRe matches a line asserting a fact: "FACT:" or "FACTS:".
	factLineRe = regexp.MustCompile(`(?i)^` + space + `*(FACT|FACTS)` + space + `*:`)

	// sourceTagRe matches an inline citation like "[source: rfc 9110]".
	sourceTagRe = regexp.MustCompile(`(?i)\[source:` + space + `*.+?\]`)

	// turkishI folds the dotted capital and dotless small I to i. RE2's
	// case folding keeps them apart from i, so "İnvent" would not match.
	turkishI = strings.NewReplacer("\u0130", "i", "\u0131", "i")
)

func newFabrication(src string) fabricationPattern {
	return fabricationPattern{Source: src, re: compileWordPattern(src)}
}

func newRisk(src, domain string) riskPattern {
	return riskPattern{Source: src, Domain: domain, re: compileWordPattern(src)}
}

// compileWordPattern compiles a case-insensitive pattern, expanding \b
// into a Unicode-aware boundary. The boundary consumes a character, which
// is fine because callers only test for presence.
func compileWordPattern(src string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + strings.ReplaceAll(src, `\b`, wordBoundary))
}
