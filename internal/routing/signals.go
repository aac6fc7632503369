package routing

import (
	"regexp"
	"strings"
)

// filePathPatterns are the three regex families spec.md §4.6.1 names for
// file-path mentions, each capped at 20 matches.
var filePathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[\w./-]+\.\w{1,6}\b`),
	regexp.MustCompile(`\b(?:src|internal|pkg|cmd|lib|test|tests)/[\w./-]+\b`),
	regexp.MustCompile("`[^`\n]+/[^`\n]+`"),
}

var fencedCodeBlockPattern = regexp.MustCompile("(?s)```.*?```")
var indentedCodeLinePattern = regexp.MustCompile(`(?m)^ {4,}\S`)

var architectureKeywords = []string{"architecture", "design pattern", "system design", "scalability", "microservice"}
var debuggingKeywords = []string{"debug", "bug", "broken", "error", "fail", "crash", "not working"}
var simpleKeywords = []string{"typo", "rename", "format", "simple", "quick", "small", "tiny"}
var riskKeywords = []string{"production", "security", "data loss", "breaking change", "migration", "critical"}

var bulletedLinePattern = regexp.MustCompile(`(?m)^\s*[-*]\s+\S`)
var numberedLinePattern = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\S`)

var vagueVerbs = []string{"improve", "clean up", "cleanup", "refactor", "optimize", "enhance"}
var scopeQualifiers = []string{"in ", "for ", "within ", "function", "file", "module", "class", "package"}

const maxFilePathMentions = 20
const maxEstimatedSubtasks = 10

func countAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func countCapped(re *regexp.Regexp, text string, cap int) int {
	matches := re.FindAllString(text, -1)
	if len(matches) > cap {
		return cap
	}
	return len(matches)
}

// ExtractLexical computes the lexical signal group from raw prompt text,
// per spec.md §4.6.1.
func ExtractLexical(prompt string) LexicalSignals {
	lower := strings.ToLower(prompt)
	words := strings.Fields(prompt)

	filePaths := 0
	for _, re := range filePathPatterns {
		filePaths += countCapped(re, prompt, maxFilePathMentions)
	}
	if filePaths > maxFilePathMentions {
		filePaths = maxFilePathMentions
	}

	codeBlocks := len(fencedCodeBlockPattern.FindAllString(prompt, -1)) +
		len(indentedCodeLinePattern.FindAllString(prompt, -1))/2

	depth := QuestionNone
	switch {
	case strings.Contains(lower, "why"):
		depth = QuestionWhy
	case strings.Contains(lower, "how"):
		depth = QuestionHow
	case strings.Contains(lower, "what"):
		depth = QuestionWhat
	case strings.Contains(lower, "where"):
		depth = QuestionWhere
	}

	implicit := false
	for _, verb := range vagueVerbs {
		if strings.Contains(lower, verb) && !countAny(lower, scopeQualifiers) {
			implicit = true
			break
		}
	}

	return LexicalSignals{
		WordCount:               len(words),
		FilePathMentions:        filePaths,
		CodeBlockCount:          codeBlocks,
		HasArchitectureKeywords: countAny(lower, architectureKeywords),
		HasDebuggingKeywords:    countAny(lower, debuggingKeywords),
		HasSimpleKeywords:       countAny(lower, simpleKeywords),
		HasRiskKeywords:         countAny(lower, riskKeywords),
		QuestionDepth:           depth,
		ImplicitRequirements:    implicit,
	}
}

var domainKeywords = map[Domain][]string{
	DomainFrontend:       {"ui", "component", "css", "react", "frontend", "button", "layout"},
	DomainBackend:        {"api", "endpoint", "database", "query", "backend", "service"},
	DomainInfrastructure: {"deploy", "kubernetes", "docker", "ci/cd", "pipeline", "infrastructure", "terraform"},
	DomainSecurity:       {"auth", "authentication", "authorization", "vulnerability", "security", "exploit"},
}

func classifyDomain(lower string) Domain {
	for _, d := range []Domain{DomainSecurity, DomainInfrastructure, DomainBackend, DomainFrontend} {
		if countAny(lower, domainKeywords[d]) {
			return d
		}
	}
	return DomainGeneric
}

func classifyReversibility(lower string, hasRisk bool) Reversibility {
	switch {
	case strings.Contains(lower, "production") || strings.Contains(lower, "migration") || hasRisk:
		return ReversibilityDifficult
	case strings.Contains(lower, "refactor") || strings.Contains(lower, "database"):
		return ReversibilityModerate
	default:
		return ReversibilityEasy
	}
}

func classifyImpactScope(lower string, crossFile bool) ImpactScope {
	switch {
	case strings.Contains(lower, "system") || strings.Contains(lower, "across") || strings.Contains(lower, "all services"):
		return ImpactSystemWide
	case crossFile:
		return ImpactModule
	default:
		return ImpactLocal
	}
}

// ExtractStructural computes the structural signal group, per spec.md
// §4.6.1.
func ExtractStructural(prompt string, lex LexicalSignals) StructuralSignals {
	lower := strings.ToLower(prompt)

	bullets := len(bulletedLinePattern.FindAllString(prompt, -1))
	numbered := len(numberedLinePattern.FindAllString(prompt, -1))
	andCount := strings.Count(lower, " and ")
	thenCount := strings.Count(lower, " then ")
	subtasks := 1 + bullets + numbered + andCount/2 + thenCount
	if subtasks > maxEstimatedSubtasks {
		subtasks = maxEstimatedSubtasks
	}

	crossFile := lex.FilePathMentions > 1 || strings.Contains(lower, "across") || strings.Contains(lower, "multiple files")
	testRequirement := strings.Contains(lower, "test") || strings.Contains(lower, "spec")
	externalKnowledge := strings.Contains(lower, "documentation") || strings.Contains(lower, "rfc") || strings.Contains(lower, "library")

	return StructuralSignals{
		EstimatedSubtasks:     subtasks,
		CrossFileDependencies: crossFile,
		TestRequirement:       testRequirement,
		Domain:                classifyDomain(lower),
		ExternalKnowledge:     externalKnowledge,
		Reversibility:         classifyReversibility(lower, lex.HasRiskKeywords),
		ImpactScope:           classifyImpactScope(lower, crossFile),
	}
}

// ExtractContext copies the caller-supplied conversation/session signals
// from Context, per spec.md §4.6.1.
func ExtractContext(ctx Context) ContextSignals {
	return ContextSignals{
		PreviousFailures:  ctx.PreviousFailures,
		ConversationTurns: ctx.ConversationTurns,
		PlanComplexity:    ctx.PlanComplexity,
		RemainingTasks:    ctx.RemainingTasks,
		AgentChainDepth:   ctx.AgentChainDepth,
	}
}

// ExtractSignals computes the full signal set for one task, per spec.md
// §4.6.1.
func ExtractSignals(prompt string, ctx Context) Signals {
	lex := ExtractLexical(prompt)
	return Signals{
		Lexical:    lex,
		Structural: ExtractStructural(prompt, lex),
		Context:    ExtractContext(ctx),
	}
}
