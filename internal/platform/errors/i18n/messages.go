package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodePathNotFound        = "PATH_NOT_FOUND"
	CodeIndexOutOfRange     = "INDEX_OUT_OF_RANGE"
	CodeMalformedExpression = "MALFORMED_EXPRESSION"
	CodeMalformedTemplate   = "MALFORMED_TEMPLATE"
	CodeMalformedReference  = "MALFORMED_REFERENCE"
	CodeInvalidDefinition   = "INVALID_DEFINITION"
	CodeInvalidPath         = "INVALID_PATH"

	// CodeDepthTruncated is not an error; it labels the notice shown next to
	// references that were left unrolled by the depth limit.
	CodeDepthTruncated = "DEPTH_TRUNCATED"
)

var enUS = map[Code]string{
	CodePathNotFound:        "Nothing to roll at {{.Path}}.",
	CodeIndexOutOfRange:     "That result is no longer available. Roll again to refresh it.",
	CodeMalformedExpression: "Dice expression is malformed near position {{.Position}}.",
	CodeMalformedTemplate:   "Row text is malformed near position {{.Position}}.",
	CodeMalformedReference:  "Reference {{.Reference}} is malformed.",
	CodeInvalidDefinition:   "Table {{.Path}} could not be loaded.",
	CodeInvalidPath:         "Path {{.Path}} cannot be resolved.",
	CodeDepthTruncated:      "Tables nested past {{.Depth}} levels stop auto-expanding.",
}

var ptBR = map[Code]string{
	CodePathNotFound:        "Nada para rolar em {{.Path}}.",
	CodeIndexOutOfRange:     "Esse resultado não está mais disponível. Role novamente para atualizar.",
	CodeMalformedExpression: "Expressão de dados malformada perto da posição {{.Position}}.",
	CodeMalformedTemplate:   "Texto da linha malformado perto da posição {{.Position}}.",
	CodeMalformedReference:  "Referência {{.Reference}} malformada.",
	CodeInvalidDefinition:   "A tabela {{.Path}} não pôde ser carregada.",
	CodeInvalidPath:         "O caminho {{.Path}} não pode ser resolvido.",
	CodeDepthTruncated:      "Tabelas aninhadas além de {{.Depth}} níveis não são expandidas automaticamente.",
}
