// Package validator inspects free-text code submissions before they are
// accepted or sent to the remote execution service. The checks are purely
// lexical (keyword and regex scanning, no parsing); they exist to deter
// trivially hardcoded answers, not to judge program correctness.
package validator

import (
	"regexp"
	"strings"
)

// Diagnostic messages returned by Validate. Callers decide whether to show
// them as a hint or to block the submission.
const (
	MsgEmpty               = "please write some code first"
	MsgHardcoded           = "hardcoded answer detected"
	MsgTooSimple           = "solution too simple"
	MsgLoopRequired        = "requires a loop"
	MsgFunctionRequired    = "requires a function/method definition"
	MsgConditionalRequired = "requires conditional statements"
	MsgNoOutput            = "should have output statements"
)

// minCodeLength is the floor for a plausible solution, in characters.
const minCodeLength = 15

// Result is the outcome of a single validation call.
type Result struct {
	IsValid bool
	Message string
}

// Success returns a passing result.
func Success() Result {
	return Result{IsValid: true}
}

// Fail returns a failing result carrying a diagnostic message.
func Fail(message string) Result {
	return Result{Message: message}
}

// hardcodedPrintRe matches a print-like call whose sole argument is a
// numeric or quoted literal, e.g. print("15") or console.log(42).
var hardcodedPrintRe = regexp.MustCompile(
	`(?i)(println|print|console\.log|system\.out\.print(?:ln)?|echo|puts|write)\s*\(\s*("[^"]*"|'[^']*'|\d+(?:\.\d+)?)\s*\)`)

// logicTokens are constructs whose presence suggests the code computes
// something instead of echoing a literal.
var logicTokens = []string{
	"for", "while", "if", "else", "switch", "case",
	"def ", "function", "void ", "int ", "return", "class",
	"=", "+", "-", "*", "/",
}

// loopKeywords in the question imply the solution must iterate.
var loopKeywords = []string{
	"loop", "iterate", "factorial", "repeat", "traverse",
	"1 to n", "from 1 to", "from 0 to",
	"all elements", "each element", "every element",
}

// sumContexts pair with "sum" in the question to imply iteration.
var sumContexts = []string{"numbers", "array", "list", "1 to", "using a loop", "using loop"}

var loopTokens = []string{
	"for", "while", "foreach", "do {", "do{",
	".map(", ".foreach(", ".reduce(", ".filter(",
}

var functionKeywords = []string{
	"function", "method", "define",
	"create a function", "write a function", "implement a method",
}

var (
	// typedFuncRe matches Java/C-style declarations: int double(x) { ... }
	typedFuncRe = regexp.MustCompile(
		`(?:(?:public|private|protected)\s+)?(?:static\s+)?(?:void|int|string|boolean|float|double|long|char)\s+\w+\s*\(`)
	// arrowFuncRe matches JS arrow-function assignments: const f = (x) => ...
	arrowFuncRe = regexp.MustCompile(`(?:const|let|var)\s+\w+\s*=\s*(?:\([^)]*\)|\w+)\s*=>`)
)

var conditionalKeywords = []string{
	"if ", "check", "condition", "whether", "determine", "compare",
	"greater", "less", "equal", "odd", "even", "positive", "negative",
}

var conditionalTokens = []string{"if", "else", "switch", "case", "?", "&&", "||"}

var outputTokens = []string{
	"print", "console.log", "system.out", "echo", "puts",
	"write", "cout", "printf", "return",
}

// Validate runs the check pipeline over a code submission and the question
// prompt it answers. Checks short-circuit: the first failure is returned.
// The construct-requirement checks run before the length floor so the
// diagnostic names the missing construct rather than just "too short".
func Validate(code, question string) Result {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Fail(MsgEmpty)
	}

	lowerCode := strings.ToLower(trimmed)
	lowerQuestion := strings.ToLower(question)

	if res := checkHardcodedOutput(trimmed, lowerCode); !res.IsValid {
		return res
	}
	if res := checkRequiredLoop(lowerCode, lowerQuestion); !res.IsValid {
		return res
	}
	if res := checkRequiredFunction(lowerCode, lowerQuestion); !res.IsValid {
		return res
	}
	if res := checkRequiredConditional(lowerCode, lowerQuestion); !res.IsValid {
		return res
	}
	if res := checkComplexity(trimmed, lowerCode); !res.IsValid {
		return res
	}
	if res := checkOutput(lowerCode); !res.IsValid {
		return res
	}
	return Success()
}

// checkHardcodedOutput flags submissions that merely print a literal: a
// print-like call with a single literal argument, no logic tokens anywhere,
// and at most two meaningful lines.
func checkHardcodedOutput(code, lowerCode string) Result {
	if !hardcodedPrintRe.MatchString(code) {
		return Success()
	}
	if containsAny(lowerCode, logicTokens) {
		return Success()
	}
	if countCodeLines(code) > 2 {
		return Success()
	}
	return Fail(MsgHardcoded)
}

func checkRequiredLoop(lowerCode, lowerQuestion string) Result {
	requires := containsAny(lowerQuestion, loopKeywords) ||
		(strings.Contains(lowerQuestion, "sum") && containsAny(lowerQuestion, sumContexts))
	if !requires || containsAny(lowerCode, loopTokens) {
		return Success()
	}
	return Fail(MsgLoopRequired)
}

func checkRequiredFunction(lowerCode, lowerQuestion string) Result {
	if !containsAny(lowerQuestion, functionKeywords) {
		return Success()
	}
	hasFunction := strings.Contains(lowerCode, "def ") ||
		strings.Contains(lowerCode, "function ") ||
		strings.Contains(lowerCode, "function(") ||
		strings.Contains(lowerCode, "func ") ||
		strings.Contains(lowerCode, "fn ") ||
		typedFuncRe.MatchString(lowerCode) ||
		arrowFuncRe.MatchString(lowerCode)
	if hasFunction {
		return Success()
	}
	return Fail(MsgFunctionRequired)
}

func checkRequiredConditional(lowerCode, lowerQuestion string) Result {
	if !containsAny(lowerQuestion, conditionalKeywords) {
		return Success()
	}
	if containsAny(lowerCode, conditionalTokens) {
		return Success()
	}
	return Fail(MsgConditionalRequired)
}

// checkComplexity enforces the minimum-length floor. The construct tally is
// computed alongside but never gates: turning it into a threshold would
// change which submissions are accepted.
func checkComplexity(code, lowerCode string) Result {
	_ = constructTally(lowerCode)
	if len(code) < minCodeLength {
		return Fail(MsgTooSimple)
	}
	return Success()
}

func checkOutput(lowerCode string) Result {
	if containsAny(lowerCode, outputTokens) {
		return Success()
	}
	return Fail(MsgNoOutput)
}

// constructTally scores the presence of assignments, loops, conditionals,
// function definitions and arithmetic.
func constructTally(lowerCode string) int {
	score := 0
	if strings.Contains(lowerCode, "=") {
		score++
	}
	if strings.Contains(lowerCode, "for") || strings.Contains(lowerCode, "while") {
		score += 2
	}
	if strings.Contains(lowerCode, "if") {
		score++
	}
	if strings.Contains(lowerCode, "function") || strings.Contains(lowerCode, "def ") ||
		strings.Contains(lowerCode, "void ") || strings.Contains(lowerCode, "func ") {
		score += 2
	}
	if strings.ContainsAny(lowerCode, "+-*/") {
		score++
	}
	return score
}

// countCodeLines counts non-empty lines that are not comments.
func countCodeLines(code string) int {
	count := 0
	for _, line := range strings.Split(code, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "//") || strings.HasPrefix(t, "#") ||
			strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*") {
			continue
		}
		count++
	}
	return count
}

func containsAny(text string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}
