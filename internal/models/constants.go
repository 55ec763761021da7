package models

const (
	// SentinelText is indexed when the corpus yields no usable documents,
	// so the index is never empty and queries always have a candidate.
	SentinelText = "Knowledge base initialized."

	// TextColumnName is the recognized header for the designated text column.
	TextColumnName = "text"
)
