package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rubyscope"
	"rubyscope/internal/config"
	"rubyscope/internal/fqn"
	"rubyscope/internal/index"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the symbol index",
	Long:  "Index the project root and run queries against it. All line and column numbers are 0-based.",
}

func init() {
	queryCmd.AddCommand(definitionsCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(ancestorsCmd)
	queryCmd.AddCommand(methodCmd)
	queryCmd.AddCommand(constantCmd)
	queryCmd.AddCommand(mixinsCmd)
	queryCmd.AddCommand(methodsNamedCmd)
}

// --- Helpers ---

// openQuery indexes the project root and returns its QueryBuilder.
func openQuery() (*rubyscope.QueryBuilder, error) {
	targetDir, err := resolveTargetDir(nil)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(targetDir)
	if err != nil {
		return nil, err
	}
	engine, err := buildEngine(targetDir, cfg, true)
	if err != nil {
		return nil, err
	}
	if err := engine.IndexDirectory(context.Background(), targetDir); err != nil {
		return nil, fmt.Errorf("indexing: %w", err)
	}
	return engine.Query(), nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so
// RunE can propagate it to Cobra. In JSON mode the error is written to
// stdout as a CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// entryToCLI converts an index entry to its JSON form.
func entryToCLI(e *rubyscope.Entry) CLIEntry {
	out := CLIEntry{
		FQN:       e.FQN.String(),
		File:      e.Location.File,
		StartLine: e.Location.StartLine,
		StartCol:  e.Location.StartCol,
		EndLine:   e.Location.EndLine,
		EndCol:    e.Location.EndCol,
	}
	switch k := e.Kind.(type) {
	case index.ClassEntry:
		out.Kind = "class"
		if k.Superclass != nil {
			out.Superclass = k.Superclass.String()
		}
	case index.ModuleEntry:
		out.Kind = "module"
	case index.MethodEntry:
		out.Kind = "method"
		out.Visibility = string(k.Visibility)
		out.Dynamic = k.Dynamic
		for _, p := range k.Parameters {
			out.Parameters = append(out.Parameters, formatParam(p))
		}
	case index.ConstantEntry:
		out.Kind = "constant"
		out.Visibility = string(k.Visibility)
	}
	return out
}

// formatParam renders a parameter in def-list style.
func formatParam(p rubyscope.Parameter) string {
	switch p.Kind {
	case "optional":
		return p.Name + "=..."
	case "rest":
		return "*" + p.Name
	case "keyword":
		return p.Name + ":"
	case "keyword_rest":
		return "**" + p.Name
	case "block":
		return "&" + p.Name
	default:
		return p.Name
	}
}

func locationToCLI(loc rubyscope.Location) CLILocation {
	return CLILocation{
		File:      loc.File,
		StartLine: loc.StartLine,
		StartCol:  loc.StartCol,
		EndLine:   loc.EndLine,
		EndCol:    loc.EndCol,
	}
}

func fqnsToAncestors(chain []fqn.FQN) []CLIAncestor {
	out := make([]CLIAncestor, len(chain))
	for i, f := range chain {
		out[i] = CLIAncestor{Position: i, FQN: f.String()}
	}
	return out
}

// --- Commands ---

var definitionsCmd = &cobra.Command{
	Use:   "definitions <name>",
	Short: "Find every definition site of a symbol",
	Long:  "Accepts display-form names: A::B, A::B#method, A::B.method.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefinitions,
}

func runDefinitions(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("definitions", err)
	}
	entries, err := q.Definitions(args[0])
	if err != nil {
		return outputError("definitions", err)
	}
	cliEntries := make([]CLIEntry, len(entries))
	for i, e := range entries {
		cliEntries[i] = entryToCLI(e)
	}
	count := len(cliEntries)
	return outputResult(CLIResult{Command: "definitions", Results: cliEntries, TotalCount: &count})
}

var referencesCmd = &cobra.Command{
	Use:   "references <name>",
	Short: "Find recorded references to a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runReferences,
}

func runReferences(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("references", err)
	}
	locs, err := q.References(args[0])
	if err != nil {
		return outputError("references", err)
	}
	cliLocs := make([]CLILocation, len(locs))
	for i, loc := range locs {
		cliLocs[i] = locationToCLI(loc)
	}
	count := len(cliLocs)
	return outputResult(CLIResult{Command: "references", Results: cliLocs, TotalCount: &count})
}

var flagClassSide bool

var ancestorsCmd = &cobra.Command{
	Use:   "ancestors <name>",
	Short: "Linearize a class or module's ancestor chain",
	Long:  "Prints ancestors in method lookup order: prepends, self, includes, then the superclass chain. --class-side linearizes the singleton side, where extends contribute.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAncestors,
}

func init() {
	ancestorsCmd.Flags().BoolVar(&flagClassSide, "class-side", false, "linearize the class-method (singleton) side")
}

func runAncestors(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("ancestors", err)
	}
	chain, err := q.Ancestors(args[0], flagClassSide)
	if err != nil {
		return outputError("ancestors", err)
	}
	cliChain := fqnsToAncestors(chain)
	count := len(cliChain)
	return outputResult(CLIResult{Command: "ancestors", Results: cliChain, TotalCount: &count})
}

var (
	flagReceiver    string
	flagScope       string
	flagClassMethod bool
)

var methodCmd = &cobra.Command{
	Use:   "method <name>",
	Short: "Resolve a method call to its definition",
	Long:  "Resolves <name> against --receiver's ancestor chain, or lexically from --scope when no receiver is given.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMethod,
}

func init() {
	methodCmd.Flags().StringVar(&flagReceiver, "receiver", "", "receiver namespace (display form)")
	methodCmd.Flags().StringVar(&flagScope, "scope", "", "lexical scope of the call site (display form)")
	methodCmd.Flags().BoolVar(&flagClassMethod, "class-method", false, "resolve on the receiver's singleton side")
}

func runMethod(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("method", err)
	}
	resolutions, err := q.FindMethod(args[0], flagReceiver, flagScope, flagClassMethod)
	if err != nil {
		return outputError("method", err)
	}
	cliRes := make([]CLIResolution, len(resolutions))
	for i, r := range resolutions {
		cliRes[i] = CLIResolution{
			FQN:        r.FQN.String(),
			Origin:     string(r.Origin.Kind),
			Visibility: string(r.Visibility),
			File:       r.Entry.Location.File,
			StartLine:  r.Entry.Location.StartLine,
			StartCol:   r.Entry.Location.StartCol,
		}
		if r.Origin.Kind != index.OriginDirect {
			cliRes[i].OriginFrom = r.Origin.From.String()
			cliRes[i].DeclaredAt = r.Entry.FQN.String()
		}
	}
	count := len(cliRes)
	return outputResult(CLIResult{Command: "method", Results: cliRes, TotalCount: &count})
}

var constantCmd = &cobra.Command{
	Use:   "constant <path>",
	Short: "Resolve a constant path from a lexical scope",
	Long:  "Follows Ruby's lexical-then-ancestor constant lookup. --scope is the namespace the reference appears in.",
	Args:  cobra.ExactArgs(1),
	RunE:  runConstant,
}

func init() {
	constantCmd.Flags().StringVar(&flagScope, "scope", "", "lexical scope of the reference (display form)")
}

func runConstant(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("constant", err)
	}
	target, entries, ok, err := q.ResolveConstant(args[0], flagScope)
	if err != nil {
		return outputError("constant", err)
	}
	if !ok {
		zero := 0
		return outputResult(CLIResult{Command: "constant", Results: nil, TotalCount: &zero})
	}
	result := CLIConstant{FQN: target.String()}
	for _, e := range entries {
		result.Entries = append(result.Entries, entryToCLI(e))
	}
	one := 1
	return outputResult(CLIResult{Command: "constant", Results: result, TotalCount: &one})
}

var mixinsCmd = &cobra.Command{
	Use:   "mixins <module>",
	Short: "List namespaces that mix in a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runMixins,
}

func runMixins(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("mixins", err)
	}
	sources, err := q.ReverseMixins(args[0])
	if err != nil {
		return outputError("mixins", err)
	}
	names := make([]string, len(sources))
	for i, f := range sources {
		names[i] = f.String()
	}
	count := len(names)
	return outputResult(CLIResult{Command: "mixins", Results: names, TotalCount: &count})
}

var methodsNamedCmd = &cobra.Command{
	Use:   "methods-named <name>",
	Short: "List every method definition with a bare name",
	Args:  cobra.ExactArgs(1),
	RunE:  runMethodsNamed,
}

func runMethodsNamed(cmd *cobra.Command, args []string) error {
	q, err := openQuery()
	if err != nil {
		return outputError("methods-named", err)
	}
	entries := q.MethodsNamed(args[0])
	cliEntries := make([]CLIEntry, len(entries))
	for i, e := range entries {
		cliEntries[i] = entryToCLI(e)
	}
	count := len(cliEntries)
	return outputResult(CLIResult{Command: "methods-named", Results: cliEntries, TotalCount: &count})
}
