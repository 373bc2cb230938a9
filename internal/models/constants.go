package models

// Statement transaction types with a sign convention.
const (
	TypeDebit  = "DEBIT"
	TypeCredit = "CREDIT"
)

// File permissions
const (
	PermissionDataFile  = 0600
	PermissionDirectory = 0750
)
