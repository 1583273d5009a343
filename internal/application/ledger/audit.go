package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
)

// Acciones registradas en el rastro de auditoría.
const (
	ActionRecordCreated      = "cod_record.created"
	ActionRecordCollect      = "cod_record.collect"
	ActionRecordDispute      = "cod_record.dispute"
	ActionRecordCancel       = "cod_record.cancel"
	ActionRecordRemit        = "cod_record.remit"
	ActionRecordClear        = "cod_record.clear"
	ActionRemittanceCreated  = "remittance.created"
	ActionRemittancesCleared = "remittances.cleared"
)

func newAuditEntry(actor Actor, action, resourceType, resourceID string, from, to entity.CodStatus, metadata any, now time.Time) *entity.AuditEntry {
	var raw json.RawMessage
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			raw = b
		}
	}
	return &entity.AuditEntry{
		ID:            uuid.New().String(),
		Actor:         actor.UserID,
		Role:          actor.Role,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		FromStatus:    string(from),
		ToStatus:      string(to),
		Metadata:      raw,
		PayloadDigest: digest(raw),
		CreatedAt:     now,
	}
}

func digest(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
