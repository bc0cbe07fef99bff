// Package apierror provides the error envelope returned by every 4xx/5xx
// response. Handlers never serialize raw errors: database and driver text
// stays in the logs.
package apierror

// APIError is the canonical error envelope for HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries one message per offending request field.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}

// EstoqueError is returned with 409 when a sale asks for more units than
// the ledger holds.
type EstoqueError struct {
	Detail     string `json:"detail"`
	ItemID     int64  `json:"item_id"`
	Solicitado int64  `json:"solicitado"`
	Disponivel int64  `json:"disponivel"`
}

func NewEstoque(itemID, solicitado, disponivel int64) *EstoqueError {
	return &EstoqueError{
		Detail:     "Estoque insuficiente",
		ItemID:     itemID,
		Solicitado: solicitado,
		Disponivel: disponivel,
	}
}
