package treesitter

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

const pythonImportQuery = `
(import_statement name: (dotted_name) @module)
(import_from_statement module_name: (dotted_name) @module)
`

// scriptImportQuery covers ES imports and require() calls. Tree-sitter
// predicates are not evaluated here, so the callee is captured and checked
// against "require" per match.
const scriptImportQuery = `
(import_statement source: (string) @module)
(call_expression
  function: (identifier) @callee
  arguments: (arguments (string) @module))
`

// pythonCallSiteQuery finds call sites, base classes, and decorators whose
// identifier resolves through the imported-symbol map.
const pythonCallSiteQuery = `
(call function: (identifier) @func)
(class_definition superclasses: (argument_list (identifier) @base))
(decorator (identifier) @dec)
(decorator (call function: (identifier) @dec_call))
`

const pythonFromImportQuery = `(import_from_statement) @stmt`

var captureUsageTypes = map[string]string{
	"func":     "call",
	"base":     "base_class",
	"dec":      "decorator",
	"dec_call": "decorator",
}

var usageSkipDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

type languageSupport struct {
	name        string
	language    *sitter.Language
	importQuery *sitter.Query
}

// TreeSitterUsageRepository finds dependency usages in Python, JavaScript,
// and TypeScript sources via tree-sitter queries.
type TreeSitterUsageRepository struct {
	byExtension     map[string]*languageSupport
	callSiteQuery   *sitter.Query
	fromImportQuery *sitter.Query
}

// NewTreeSitterUsageRepository compiles the per-language queries up front.
func NewTreeSitterUsageRepository() (repositories.UsageRepository, error) {
	pyLang := python.GetLanguage()

	langs := []struct {
		name     string
		language *sitter.Language
		query    string
		exts     []string
	}{
		{"python", pyLang, pythonImportQuery, []string{".py"}},
		{"javascript", javascript.GetLanguage(), scriptImportQuery, []string{".js", ".jsx"}},
		{"typescript", typescript.GetLanguage(), scriptImportQuery, []string{".ts"}},
		{"tsx", tsx.GetLanguage(), scriptImportQuery, []string{".tsx"}},
	}

	byExtension := make(map[string]*languageSupport)
	for _, l := range langs {
		query, err := sitter.NewQuery([]byte(l.query), l.language)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s import query: %w", l.name, err)
		}
		support := &languageSupport{name: l.name, language: l.language, importQuery: query}
		for _, ext := range l.exts {
			byExtension[ext] = support
		}
	}

	callSiteQuery, err := sitter.NewQuery([]byte(pythonCallSiteQuery), pyLang)
	if err != nil {
		return nil, fmt.Errorf("failed to compile call-site query: %w", err)
	}
	fromImportQuery, err := sitter.NewQuery([]byte(pythonFromImportQuery), pyLang)
	if err != nil {
		return nil, fmt.Errorf("failed to compile from-import query: %w", err)
	}

	return &TreeSitterUsageRepository{
		byExtension:     byExtension,
		callSiteQuery:   callSiteQuery,
		fromImportQuery: fromImportQuery,
	}, nil
}

// FindUsages walks the project tree, parses every supported source file, and
// returns the usages whose symbol resolves to depName. Package names use
// hyphens where import names use underscores, so both spellings match.
func (r *TreeSitterUsageRepository) FindUsages(ctx context.Context, projectPath, depName string) ([]entities.CodeUsage, error) {
	var all []entities.CodeUsage

	walkErr := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != projectPath && (usageSkipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		support, ok := r.byExtension[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		usages, parseErr := r.parseFile(ctx, path, support)
		if parseErr != nil {
			logger.Debugf("Failed to parse %q: %v (skipping)", path, parseErr)
			return nil
		}
		all = append(all, usages...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk project %q: %w", projectPath, walkErr)
	}

	return filterUsagesForDep(all, depName), nil
}

func (r *TreeSitterUsageRepository) parseFile(ctx context.Context, path string, support *languageSupport) ([]entities.CodeUsage, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(source), "\n")

	parser := sitter.NewParser()
	parser.SetLanguage(support.language)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	var usages []entities.CodeUsage

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(support.importQuery, root)
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}

		var moduleNode *sitter.Node
		callee := ""
		for _, capture := range match.Captures {
			switch support.importQuery.CaptureNameForId(capture.Index) {
			case "module":
				moduleNode = capture.Node
			case "callee":
				callee = capture.Node.Content(source)
			}
		}
		// A captured callee means this match is a call expression, which
		// only counts as an import when it is require(...).
		if moduleNode == nil || (callee != "" && callee != "require") {
			continue
		}

		usageType := "import"
		if support.name == "python" && moduleNode.Parent() != nil &&
			moduleNode.Parent().Type() == "import_from_statement" {
			usageType = "import_from"
		}

		usages = append(usages, entities.CodeUsage{
			FilePath:    path,
			LineNumber:  int(moduleNode.StartPoint().Row) + 1,
			UsageType:   usageType,
			Symbol:      stripQuotes(moduleNode.Content(source)),
			CodeSnippet: snippetAt(lines, int(moduleNode.StartPoint().Row)),
		})
	}

	if support.name == "python" {
		symbols := r.buildImportedSymbolMap(root, source)
		usages = append(usages, r.extractCallSites(root, source, lines, path, symbols)...)
	}

	return usages, nil
}

// buildImportedSymbolMap maps lowercased imported names to their source
// module from "from X import Y" statements, honoring aliases and dotted
// names.
func (r *TreeSitterUsageRepository) buildImportedSymbolMap(root *sitter.Node, source []byte) map[string]string {
	symbols := make(map[string]string)

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(r.fromImportQuery, root)
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}

		for _, capture := range match.Captures {
			stmt := capture.Node
			moduleNode := stmt.ChildByFieldName("module_name")
			if moduleNode == nil {
				continue
			}
			module := moduleNode.Content(source)

			cursor := sitter.NewTreeCursor(stmt)
			if cursor.GoToFirstChild() {
				for {
					if cursor.CurrentFieldName() == "name" {
						nameNode := cursor.CurrentNode()
						if nameNode.Type() == "aliased_import" {
							if alias := nameNode.ChildByFieldName("alias"); alias != nil {
								symbols[strings.ToLower(alias.Content(source))] = module
							}
						} else {
							// dotted_name: key on the last component (A.B imports B).
							parts := strings.Split(nameNode.Content(source), ".")
							symbols[strings.ToLower(parts[len(parts)-1])] = module
						}
					}
					if !cursor.GoToNextSibling() {
						break
					}
				}
			}
			cursor.Close()
		}
	}

	return symbols
}

// extractCallSites records call sites, base classes, and decorators whose
// identifier is in the imported-symbol map, qualifying each symbol with its
// source module so dependency filtering can match the prefix.
func (r *TreeSitterUsageRepository) extractCallSites(
	root *sitter.Node,
	source []byte,
	lines []string,
	path string,
	symbols map[string]string,
) []entities.CodeUsage {
	if len(symbols) == 0 {
		return nil
	}

	var usages []entities.CodeUsage

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(r.callSiteQuery, root)
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}

		for _, capture := range match.Captures {
			usageType := captureUsageTypes[r.callSiteQuery.CaptureNameForId(capture.Index)]
			if usageType == "" {
				continue
			}

			identifier := capture.Node.Content(source)
			module, ok := symbols[strings.ToLower(identifier)]
			if !ok {
				continue
			}

			row := int(capture.Node.StartPoint().Row)
			usages = append(usages, entities.CodeUsage{
				FilePath:    path,
				LineNumber:  row + 1,
				UsageType:   usageType,
				Symbol:      module + "." + identifier,
				CodeSnippet: snippetAt(lines, row),
			})
		}
	}

	return usages
}

// filterUsagesForDep keeps usages whose symbol equals depName or starts with
// it as a dotted prefix, treating hyphens and underscores as equivalent.
func filterUsagesForDep(usages []entities.CodeUsage, depName string) []entities.CodeUsage {
	normalized := strings.ReplaceAll(strings.ToLower(depName), "-", "_")

	var filtered []entities.CodeUsage
	for _, usage := range usages {
		symbol := strings.ReplaceAll(strings.ToLower(usage.Symbol), "-", "_")
		if symbol == normalized || strings.HasPrefix(symbol, normalized+".") {
			filtered = append(filtered, usage)
		}
	}
	return filtered
}

func stripQuotes(text string) string {
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '\'' || first == '"') && (last == '\'' || last == '"') {
			return text[1 : len(text)-1]
		}
	}
	return text
}

func snippetAt(lines []string, row int) string {
	if row < len(lines) {
		return strings.TrimSpace(lines[row])
	}
	return ""
}
