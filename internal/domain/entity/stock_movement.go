package entity

import (
	"fmt"
	"strings"
	"time"
)

// MovementType tipo cerrado de movimiento de stock.
type MovementType string

// Tipos de movimiento de stock.
const (
	MovementTypeINITIAL    MovementType = "INITIAL"    // saldo inicial al crear el producto
	MovementTypeIN         MovementType = "IN"         // entrada
	MovementTypeOUT        MovementType = "OUT"        // salida
	MovementTypeADJUSTMENT MovementType = "ADJUSTMENT" // ajuste absoluto
)

// MovementTypes lista los tipos válidos en orden estable.
var MovementTypes = []MovementType{
	MovementTypeINITIAL,
	MovementTypeIN,
	MovementTypeOUT,
	MovementTypeADJUSTMENT,
}

// ParseMovementType valida el texto recibido en la frontera (query, body) y devuelve el tipo.
// Acepta mayúsculas o minúsculas.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("tipo de movimiento desconocido %q", s)
	}
	return t, nil
}

// Valid informa si el tipo pertenece al conjunto cerrado.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeINITIAL, MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT:
		return true
	}
	return false
}

func (t MovementType) String() string { return string(t) }

// StockMovement es un hecho inmutable del historial de stock: nunca se actualiza ni se borra.
// Quantity es siempre la magnitud (>= 0); la dirección la da Type.
// PreviousStock y NewStock registran el saldo antes y después de aplicar el movimiento.
type StockMovement struct {
	ID              int64
	ProductID       int64 // 0 si el producto fue eliminado (el historial se conserva)
	ProductName     string
	ProductCategory string // solo lectura (join para reportes)
	Type            MovementType
	Quantity        int64
	PreviousStock   int64
	NewStock        int64
	UserID          int64 // 0 si el usuario fue eliminado
	UserName        string // solo lectura (join para reportes)
	UserEmail       string // solo lectura (join para reportes)
	Reason          string
	IdempotencyKey  string
	CreatedAt       time.Time
}
