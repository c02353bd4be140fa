package models

import (
	"fmt"
	"strings"
)

// MovementType discriminates the three extracted files. It selects which
// date, value and branch columns a table carries.
type MovementType string

const (
	MovementEntry   MovementType = "entrada"
	MovementExit    MovementType = "saida"
	MovementPending MovementType = ""
)

// Column names as produced by the extraction, after lower-casing.
const (
	ColumnBranch      = "codfilial"
	ColumnProductName = "nome_produto"

	ColumnPendingBranch = "filial"
	ColumnUpdatedAt     = "data_atualizacao"
	ColumnPendingValue  = "valor"
)

// IdentifierColumns are always kept as text.
var IdentifierColumns = []string{ColumnBranch, ColumnPendingBranch}

// NumericMarkers flag value and quantity columns by substring.
var NumericMarkers = []string{"vlr", "valor", "qtd"}

// ParseMovementType accepts "entrada", "saida" or "pendente" (and the empty
// string) case-insensitively.
func ParseMovementType(s string) (MovementType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(MovementEntry):
		return MovementEntry, nil
	case string(MovementExit):
		return MovementExit, nil
	case "", "pendente":
		return MovementPending, nil
	default:
		return MovementPending, fmt.Errorf("unknown movement type %q", s)
	}
}

// DateColumn is the column parsed as a date for this movement type.
func (m MovementType) DateColumn() string {
	if m == MovementPending {
		return ColumnUpdatedAt
	}
	return "dtmov_" + string(m)
}

// ValueColumn holds the monetary value of a line.
func (m MovementType) ValueColumn() string {
	if m == MovementPending {
		return ColumnPendingValue
	}
	return "vlr_" + string(m)
}

// QuantityColumn holds the moved quantity. Pending notes have none.
func (m MovementType) QuantityColumn() string {
	if m == MovementPending {
		return ""
	}
	return "qtd_" + string(m)
}

// BranchColumn holds the branch identifier.
func (m MovementType) BranchColumn() string {
	if m == MovementPending {
		return ColumnPendingBranch
	}
	return ColumnBranch
}

// Label is a human readable name for logs and sheet titles.
func (m MovementType) Label() string {
	switch m {
	case MovementEntry:
		return "entradas"
	case MovementExit:
		return "saidas"
	default:
		return "pendentes"
	}
}
