package errors

// Error code constants organized by subsystem
// A001-A099: alias declaration errors
// M001-M099: mirror group errors
// G001-G099: registry and mapping graph errors

const (
	// Alias declaration errors (A001-A099)
	ErrAliasTargetMissing    = "A001" // target attribute does not exist on the target type
	ErrAliasSelfReference    = "A002" // attribute declared as an alias for itself
	ErrAliasTypeMismatch     = "A003" // source and target declare incompatible value types
	ErrAliasPairAsymmetric   = "A004" // same-type alias pair does not point back
	ErrAliasTargetNotPresent = "A005" // target annotation is not meta-present on the source chain
	ErrAliasTypeUnknown      = "A006" // target annotation type is not registered

	// Mirror group errors (M001-M099)
	ErrMirrorNoDefault       = "M001" // mirrored attribute declares no default value
	ErrMirrorDefaultMismatch = "M002" // mirrored attributes declare different default values
	ErrMirrorValueConflict   = "M003" // mirrored attributes carry different non-default values

	// Registry and mapping graph errors (G001-G099)
	ErrTypeNotRegistered = "G001"
	ErrBadAttribute      = "G004" // malformed attribute definition
)
