// # internal/engine/parser/kinds.go
package parser

// Node kinds of the tree-sitter javascript/typescript grammars that the
// analyzer dispatches on. Anything else takes the walker's default path.
const (
	KindProgram  = "program"
	KindComment  = "comment"
	KindHashBang = "hash_bang_line"
	KindString   = "string"

	// identifiers
	KindIdentifier                 = "identifier"
	KindShorthandPropertyIdent     = "shorthand_property_identifier"
	KindShorthandPropertyIdentPatt = "shorthand_property_identifier_pattern"

	// modules
	KindImportStatement   = "import_statement"
	KindImportClause      = "import_clause"
	KindNamedImports      = "named_imports"
	KindNamespaceImport   = "namespace_import"
	KindImportSpecifier   = "import_specifier"
	KindExportStatement   = "export_statement"
	KindExportClause      = "export_clause"
	KindExportSpecifier   = "export_specifier"
	KindNamespaceExport   = "namespace_export"
	KindDefaultKeyword    = "default"
	KindImportRequireTS   = "import_require_clause"
	KindEmptyStatement    = "empty_statement"
	KindStatementBlock    = "statement_block"
	KindForStatement      = "for_statement"
	KindForInStatement    = "for_in_statement"
	KindCatchClause       = "catch_clause"
	KindSwitchBody        = "switch_body"
	KindClassStaticBlock  = "class_static_block"
	KindMetaProperty      = "meta_property"
	KindJSXOpeningElement = "jsx_opening_element"
	KindJSXClosingElement = "jsx_closing_element"
	KindJSXSelfClosing    = "jsx_self_closing_element"

	// declarations
	KindLexicalDeclaration       = "lexical_declaration"
	KindVariableDeclaration      = "variable_declaration"
	KindVariableDeclarator       = "variable_declarator"
	KindFunctionDeclaration      = "function_declaration"
	KindGeneratorFunctionDecl    = "generator_function_declaration"
	KindClassDeclaration         = "class_declaration"
	KindAbstractClassDeclaration = "abstract_class_declaration"
	KindFunctionSignature        = "function_signature"
	KindInterfaceDeclaration     = "interface_declaration"
	KindTypeAliasDeclaration     = "type_alias_declaration"
	KindEnumDeclaration          = "enum_declaration"
	KindAmbientDeclaration       = "ambient_declaration"

	// type-only positions
	KindTypeAnnotation   = "type_annotation"
	KindTypeArguments    = "type_arguments"
	KindTypeParameters   = "type_parameters"
	KindImplementsClause = "implements_clause"

	// functions and classes as expressions
	KindFunctionExpression  = "function_expression"
	KindFunctionLegacy      = "function"
	KindGeneratorFunction   = "generator_function"
	KindArrowFunction       = "arrow_function"
	KindMethodDefinition    = "method_definition"
	KindClassExpression     = "class"
	KindRequiredParameterTS = "required_parameter"
	KindOptionalParameterTS = "optional_parameter"

	// patterns
	KindAssignmentPattern       = "assignment_pattern"
	KindObjectAssignmentPattern = "object_assignment_pattern"
	KindRestPattern             = "rest_pattern"
	KindObjectPattern           = "object_pattern"
	KindArrayPattern            = "array_pattern"
	KindPairPattern             = "pair_pattern"
)

// IsTrivia reports nodes that carry no program meaning.
func IsTrivia(kind string) bool {
	return kind == KindComment || kind == KindHashBang
}
