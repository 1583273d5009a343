package entity

import (
	"encoding/json"
	"time"
)

// Tipos de recurso auditados.
const (
	AuditResourceCodRecord  = "cod_record"
	AuditResourceRemittance = "remittance"
)

// AuditEntry registro append-only de una transición del ledger COD.
type AuditEntry struct {
	ID            string
	Actor         string
	Role          string
	Action        string // ej: cod_record.collect, remittance.created, remittances.cleared
	ResourceType  string
	ResourceID    string
	FromStatus    string
	ToStatus      string
	Metadata      json.RawMessage
	PayloadDigest string // SHA-256 hex de Metadata
	CreatedAt     time.Time
}
