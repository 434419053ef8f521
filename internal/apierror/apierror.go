// Package apierror provides the error envelope for HTTP responses and the
// sentinel errors of the purchase-order / evaluation domain. Handlers map
// sentinels to status codes with errors.Is; internal details (stack traces,
// SQL errors) never reach clients.
package apierror

import "errors"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Domain sentinels. Services wrap these with context via fmt.Errorf("…: %w").
var (
	// ErrValidacion: malformed input (empty lines, non-positive quantities or
	// costs). Rejected before any mutation.
	ErrValidacion = errors.New("datos de entrada inválidos")

	// ErrTransicionInvalida: the requested status change is not a legal
	// forward transition. Entity left unchanged.
	ErrTransicionInvalida = errors.New("transición de estado inválida")

	// ErrFaltaTracking: enviada → en_transito requires a tracking number.
	ErrFaltaTracking = errors.New("se requiere número de tracking")

	// ErrYaRecibida: the order already generated inventory; Recibir is one-shot.
	ErrYaRecibida = errors.New("la orden ya fue recibida")

	// ErrFueraDeRango: an evaluation factor outside [0, 25].
	ErrFueraDeRango = errors.New("factor de evaluación fuera de rango")

	// ErrConcurrencia: the optimistic version check failed — another mutation
	// landed first. The caller must refetch and retry.
	ErrConcurrencia = errors.New("la entidad fue modificada por otra operación")

	// ErrNoEncontrado: entity lookup miss, mapped to 404.
	ErrNoEncontrado = errors.New("no encontrado")
)
