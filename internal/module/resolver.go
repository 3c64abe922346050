// Package module resolves `подключить`/`из ... подключить` statements into
// a single linked *ast.Program: every imported declaration is copied into
// the importing module under a mangled name, so the checker, optimizer,
// compiler, and VM downstream never need to know a module system existed.
//
// Grounded on _examples/original_source/yasny/module_loader.py
// (ModuleResolver, ResolvedModule, the alias/rename rewriters, and the
// dependency collector) for exact semantics; Go idiom (explicit struct +
// methods, panic-based error signaling caught by the pipeline driver)
// follows this toolchain's other stages and internal/module/module.go
// (teacher), whose cache-by-path/RWMutex shape is retired here in favor of
// the single-resolution-pass map the source algorithm actually needs.
package module

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"yasny/internal/ast"
	"yasny/internal/config"
	"yasny/internal/diagnostics"
	"yasny/internal/lexer"
	"yasny/internal/parser"
)

// ResolvedModule is one fully linked module: its own (already-linked)
// program, and the subset of its top-level declarations visible to
// importers.
type ResolvedModule struct {
	Path    string
	Program *ast.Program
	Exports map[string]ast.Stmt
	Tag     string
}

// Resolver links an entry program against every module it (transitively)
// imports. One Resolver resolves exactly one entry program; it is not
// reused across compilations.
type Resolver struct {
	resolved       map[string]*ResolvedModule
	resolvingStack []string
	projectRoot    string
	modulesCfg     config.Modules
	tags           map[string]string
}

func NewResolver() *Resolver {
	return &Resolver{
		resolved: make(map[string]*ResolvedModule),
		tags:     make(map[string]string),
	}
}

// ResolveEntry parses source as the entry module (entryPath is used for
// diagnostics and as the base for relative imports; "" means stdin) and
// returns the fully linked program, every import expanded in place.
func (r *Resolver) ResolveEntry(source, entryPath string) *ast.Program {
	var entry string
	if entryPath != "" {
		abs, err := filepath.Abs(entryPath)
		if err != nil {
			abs = entryPath
		}
		entry = abs
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		entry = filepath.Join(cwd, "<stdin>")
	}

	r.initProjectContext(entry)
	entryProgram := parseSourceText(source, entry)
	resolved := r.resolveModule(entry, entryProgram, true)
	return resolved.Program
}

func (r *Resolver) initProjectContext(entry string) {
	root, manifest, ok := config.FindProjectRoot(entry)
	if !ok {
		return
	}
	r.projectRoot = root
	if manifest == "" {
		return
	}
	proj, err := config.Load(manifest)
	if err != nil {
		if de, ok := err.(*diagnostics.Error); ok {
			panic(de)
		}
		panic(diagnostics.NewCompileError(err.Error(), manifest, 0, 0))
	}
	r.modulesCfg = proj.Modules
}

func parseSourceText(source, path string) *ast.Program {
	tokens := lexer.New(source, path).Tokenize()
	return parser.New(tokens, path).Parse()
}

func (r *Resolver) resolveModule(modulePath string, program *ast.Program, isEntry bool) *ResolvedModule {
	if existing, ok := r.resolved[modulePath]; ok {
		return existing
	}

	for _, onStack := range r.resolvingStack {
		if onStack == modulePath {
			chain := append(append([]string{}, r.resolvingStack...), modulePath)
			panic(diagnostics.NewCompileError(
				"Обнаружен циклический импорт: "+strings.Join(chain, " -> "),
				modulePath, 0, 0,
			))
		}
	}

	r.resolvingStack = append(r.resolvingStack, modulePath)
	defer func() { r.resolvingStack = r.resolvingStack[:len(r.resolvingStack)-1] }()

	if program == nil {
		src, err := os.ReadFile(modulePath)
		if err != nil {
			panic(diagnostics.NewCompileError("не удалось прочитать модуль: "+err.Error(), modulePath, 0, 0))
		}
		program = parseSourceText(string(src), modulePath)
	}

	linkedStatements := r.linkStatements(program.Statements, modulePath, isEntry)
	linkedProgram := ast.NewProgram(linkedStatements)
	exports := r.collectExports(linkedStatements)

	resolved := &ResolvedModule{
		Path:    modulePath,
		Program: linkedProgram,
		Exports: exports,
		Tag:     r.moduleTag(modulePath),
	}
	r.resolved[modulePath] = resolved
	return resolved
}

func (r *Resolver) collectExports(statements []ast.Stmt) map[string]ast.Stmt {
	var decls []ast.Stmt
	for _, s := range statements {
		if isDecl(s) {
			decls = append(decls, s)
		}
	}
	explicit := false
	for _, s := range decls {
		if declExported(s) {
			explicit = true
			break
		}
	}

	exports := make(map[string]ast.Stmt)
	for _, stmt := range decls {
		name := declName(stmt)
		if name == "" || name == "main" {
			continue
		}
		if strings.HasPrefix(name, "__мод_") {
			continue
		}
		if explicit && !declExported(stmt) {
			continue
		}
		exports[name] = ast.CloneStmt(stmt)
	}
	return exports
}

// linkStatements enforces import-before-declaration ordering, rewrites
// namespace-aliased member access into mangled identifiers, and splices in
// every imported declaration, checking for name conflicts at each step.
func (r *Resolver) linkStatements(statements []ast.Stmt, modulePath string, isEntry bool) []ast.Stmt {
	var linked []ast.Stmt
	topDeclNames := make(map[string]bool)
	importNameMap := make(map[string]string)
	namespaceMap := make(map[string]map[string]string)
	nonImportSeen := false

	for _, stmt := range statements {
		line, col := stmt.Pos()

		switch s := stmt.(type) {
		case *ast.ImportAll:
			if nonImportSeen {
				panic(diagnostics.NewCompileError(
					"Операторы 'подключить'/'из ... подключить' должны идти до остальных объявлений",
					modulePath, line, col))
			}
			imported := r.resolveImportAll(s, modulePath, importNameMap, namespaceMap, topDeclNames)
			linked = append(linked, imported...)
			continue
		case *ast.ImportFrom:
			if nonImportSeen {
				panic(diagnostics.NewCompileError(
					"Операторы 'подключить'/'из ... подключить' должны идти до остальных объявлений",
					modulePath, line, col))
			}
			imported := r.resolveImportFrom(s, modulePath, importNameMap, topDeclNames)
			linked = append(linked, imported...)
			continue
		}

		nonImportSeen = true

		if !isEntry && !isDecl(stmt) {
			panic(diagnostics.NewCompileError(
				"В подключаемом модуле разрешены только объявления и вложенные блоки внутри функций",
				modulePath, line, col))
		}

		if name := declName(stmt); name != "" {
			if _, ok := importNameMap[name]; ok {
				panic(diagnostics.NewNameError(
					fmt.Sprintf("Конфликт имён: '%s' уже импортировано в эту область", name),
					modulePath, line, col))
			}
			if _, ok := namespaceMap[name]; ok {
				panic(diagnostics.NewNameError(
					fmt.Sprintf("Конфликт имён: '%s' уже занято как пространство модуля", name),
					modulePath, line, col))
			}
		}

		rewritten := newAliasRewriter(importNameMap, namespaceMap).RewriteStmt(stmt)
		appendDeclWithConflictCheck(&linked, topDeclNames, rewritten, modulePath)
	}

	return linked
}

func (r *Resolver) resolveImportAll(stmt *ast.ImportAll, currentModule string, importNameMap map[string]string, namespaceMap map[string]map[string]string, topDeclNames map[string]bool) []ast.Stmt {
	line, col := stmt.Pos()
	target := r.resolveModulePath(stmt.ModulePath, currentModule, line, col)
	resolved := r.resolveModule(target, nil, false)

	selected := make(map[string]bool, len(resolved.Exports))
	for name := range resolved.Exports {
		selected[name] = true
	}
	materialized, exposeMap := r.materializeImportedDecls(resolved, selected)
	materialized = onlyNewImported(materialized, topDeclNames)
	appendImported(materialized, topDeclNames)

	if stmt.Alias != "" {
		alias := stmt.Alias
		if _, ok := namespaceMap[alias]; ok {
			panic(diagnostics.NewNameError(fmt.Sprintf("Конфликт имени пространства модулей: '%s'", alias), currentModule, line, col))
		}
		if _, ok := importNameMap[alias]; ok {
			panic(diagnostics.NewNameError(fmt.Sprintf("Конфликт имени пространства модулей: '%s'", alias), currentModule, line, col))
		}
		if topDeclNames[alias] {
			panic(diagnostics.NewNameError(fmt.Sprintf("Конфликт имени пространства модулей: '%s'", alias), currentModule, line, col))
		}
		namespaceMap[alias] = exposeMap
		return materialized
	}

	for exportedName, uniqueName := range exposeMap {
		if _, ok := importNameMap[exportedName]; ok {
			panic(diagnostics.NewNameError(fmt.Sprintf("Конфликт имён при подключении: '%s' уже объявлено", exportedName), currentModule, line, col))
		}
		if topDeclNames[exportedName] {
			panic(diagnostics.NewNameError(fmt.Sprintf("Конфликт имён при подключении: '%s' уже объявлено", exportedName), currentModule, line, col))
		}
		importNameMap[exportedName] = uniqueName
	}
	return materialized
}

func (r *Resolver) resolveImportFrom(stmt *ast.ImportFrom, currentModule string, importNameMap map[string]string, topDeclNames map[string]bool) []ast.Stmt {
	line, col := stmt.Pos()
	target := r.resolveModulePath(stmt.ModulePath, currentModule, line, col)
	resolved := r.resolveModule(target, nil, false)

	var requestedNames []string
	seenRequested := make(map[string]bool)
	for _, item := range stmt.Items {
		if _, ok := resolved.Exports[item.Name]; !ok {
			panic(diagnostics.NewNameError(
				fmt.Sprintf("Символ '%s' не найден в модуле '%s'", item.Name, target),
				currentModule, item.Line, item.Col))
		}
		if !seenRequested[item.Name] {
			seenRequested[item.Name] = true
			requestedNames = append(requestedNames, item.Name)
		}
	}

	includeSet := r.expandWithDependencies(resolved, requestedNames)
	materialized, exposeMap := r.materializeImportedDecls(resolved, includeSet)
	materialized = onlyNewImported(materialized, topDeclNames)
	appendImported(materialized, topDeclNames)

	seenLocal := make(map[string]bool)
	for _, item := range stmt.Items {
		localName := item.Alias
		if localName == "" {
			localName = item.Name
		}
		if seenLocal[localName] {
			continue
		}
		seenLocal[localName] = true
		if _, ok := importNameMap[localName]; ok {
			panic(diagnostics.NewNameError(fmt.Sprintf("Конфликт имени при подключении: '%s' уже объявлено", localName), currentModule, item.Line, item.Col))
		}
		if topDeclNames[localName] {
			panic(diagnostics.NewNameError(fmt.Sprintf("Конфликт имени при подключении: '%s' уже объявлено", localName), currentModule, item.Line, item.Col))
		}
		importNameMap[localName] = exposeMap[item.Name]
	}
	return materialized
}

// expandWithDependencies walks the free-variable closure of every
// requested export, transitively pulling in any other export it
// references, so importing one function also imports what it calls.
func (r *Resolver) expandWithDependencies(resolved *ResolvedModule, roots []string) map[string]bool {
	include := make(map[string]bool)
	queue := append([]string{}, roots...)
	exportNames := make(map[string]bool, len(resolved.Exports))
	for name := range resolved.Exports {
		exportNames[name] = true
	}

	for len(queue) > 0 {
		cur := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if include[cur] {
			continue
		}
		include[cur] = true
		decl := resolved.Exports[cur]
		for dep := range directDependencies(decl, exportNames) {
			if !include[dep] {
				queue = append(queue, dep)
			}
		}
	}
	return include
}

// materializeImportedDecls clones every selected exported declaration and
// renames it to a globally-unique mangled name, so two modules that both
// import the same upstream symbol each get their own non-colliding copy.
func (r *Resolver) materializeImportedDecls(resolved *ResolvedModule, selected map[string]bool) ([]ast.Stmt, map[string]string) {
	renameMap := make(map[string]string, len(selected))
	for name := range selected {
		if _, ok := resolved.Exports[name]; !ok {
			continue
		}
		renameMap[name] = r.uniqueSymbolName(resolved, name)
	}

	var materialized []ast.Stmt
	renamer := newRenameSymbols(renameMap)
	for _, stmt := range resolved.Program.Statements {
		name := declName(stmt)
		if name == "" || !selected[name] {
			continue
		}
		cloned := ast.CloneStmt(stmt)
		renamed := renamer.RewriteStmt(cloned)
		switch d := renamed.(type) {
		case *ast.VarDecl:
			d.Exported = false
		case *ast.FuncDecl:
			d.Exported = false
		}
		materialized = append(materialized, renamed)
	}
	return materialized, renameMap
}

func appendImported(imported []ast.Stmt, topDeclNames map[string]bool) {
	for _, s := range imported {
		name := declName(s)
		if name == "" || topDeclNames[name] {
			continue
		}
		topDeclNames[name] = true
	}
}

func onlyNewImported(imported []ast.Stmt, topDeclNames map[string]bool) []ast.Stmt {
	var result []ast.Stmt
	for _, s := range imported {
		name := declName(s)
		if name != "" && topDeclNames[name] {
			continue
		}
		result = append(result, s)
	}
	return result
}

func appendDeclWithConflictCheck(linked *[]ast.Stmt, namesInScope map[string]bool, stmt ast.Stmt, sourcePath string) {
	line, col := stmt.Pos()
	if name := declName(stmt); name != "" {
		if namesInScope[name] {
			panic(diagnostics.NewNameError(fmt.Sprintf("Конфликт имён: '%s' уже объявлено", name), sourcePath, line, col))
		}
		namesInScope[name] = true
	}
	*linked = append(*linked, stmt)
}

// resolveModulePath turns an import's raw path string into a concrete file
// on disk: tried relative to the importing module first, then the project
// root's configured module root, then each extra search path in order.
func (r *Resolver) resolveModulePath(rawPath, currentModule string, line, col int) string {
	path := rawPath
	if filepath.Ext(path) == "" {
		path += ".яс"
	}

	var candidates []string
	if filepath.IsAbs(path) {
		candidates = append(candidates, filepath.Clean(path))
	} else {
		candidates = append(candidates, filepath.Clean(filepath.Join(filepath.Dir(currentModule), path)))
		if r.projectRoot != "" {
			if r.modulesCfg.Root != "" {
				candidates = append(candidates, filepath.Clean(filepath.Join(r.projectRoot, r.modulesCfg.Root, path)))
			}
			for _, extra := range r.modulesCfg.Paths {
				candidates = append(candidates, filepath.Clean(filepath.Join(r.projectRoot, extra, path)))
			}
		}
	}

	seen := make(map[string]bool)
	var dedup []string
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		dedup = append(dedup, c)
	}

	for _, c := range dedup {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}

	panic(diagnostics.NewCompileError(
		fmt.Sprintf("Модуль не найден: '%s'. Проверены пути: %s", rawPath, strings.Join(dedup, "; ")),
		currentModule, line, col))
}

func (r *Resolver) moduleTag(path string) string {
	if t, ok := r.tags[path]; ok {
		return t
	}
	sum := sha1.Sum([]byte(path))
	tag := "мод_" + hex.EncodeToString(sum[:])[:8]
	r.tags[path] = tag
	return tag
}

func (r *Resolver) uniqueSymbolName(resolved *ResolvedModule, original string) string {
	return "__" + resolved.Tag + "_" + original
}

func declName(stmt ast.Stmt) string {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return s.Name
	case *ast.FuncDecl:
		return s.Name
	}
	return ""
}

func declExported(stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return s.Exported
	case *ast.FuncDecl:
		return s.Exported
	}
	return false
}

func isDecl(stmt ast.Stmt) bool {
	switch stmt.(type) {
	case *ast.VarDecl, *ast.FuncDecl:
		return true
	}
	return false
}
