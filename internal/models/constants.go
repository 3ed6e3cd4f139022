package models

// Transaction types, as stored by the transaction source.
const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Artifact kinds and the schema version each loader accepts. Bump the version
// whenever the persisted layout changes so a stale artifact is rejected at
// load time instead of being misread.
const (
	ArtifactKindClassifier = "classifier"
	ArtifactKindBaselines  = "anomaly_baselines"

	ClassifierSchemaVersion = 1
	BaselineSchemaVersion   = 1
)

// File permissions
const (
	PermissionArtifactFile = 0600
	PermissionDirectory    = 0750
)
