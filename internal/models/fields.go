package models

// FieldCount is the fixed arity of a normalized statement row.
const FieldCount = 8

// Positions inside NormalizedFields.
const (
	FieldAccount = iota
	FieldDate
	FieldType
	FieldDescription
	FieldAmount
	FieldPostedDate
	FieldReference
	FieldMemo
)

// NormalizedFields is one statement row reduced to exactly FieldCount fields.
type NormalizedFields [FieldCount]string

// Account returns the account marker column.
func (f NormalizedFields) Account() string { return f[FieldAccount] }

// Description returns the (possibly merged) description column.
func (f NormalizedFields) Description() string { return f[FieldDescription] }
