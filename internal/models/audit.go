package models

import "time"

// Audit actions recorded by the console.
const (
	AuditActionLogin        = "auth.login"
	AuditActionLogout       = "auth.logout"
	AuditActionRecordCreate = "record.create"
	AuditActionRecordUpdate = "record.update"
	AuditActionRecordDelete = "record.delete"
)

// AuditEntry is one row of the mutation audit trail.
type AuditEntry struct {
	ID        string    `db:"id" json:"id"`
	Actor     string    `db:"actor" json:"actor"`
	Action    string    `db:"action" json:"action"`
	RecordID  string    `db:"record_id" json:"record_id"`
	Detail    string    `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
