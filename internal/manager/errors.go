package manager

// tierNotFoundError signals an explicit tier override naming no catalog tier.
type tierNotFoundError struct{ id string }

func (e tierNotFoundError) Error() string { return "tier not found: " + e.id }

// ErrTierNotFound constructs a tierNotFoundError.
func ErrTierNotFound(id string) error { return tierNotFoundError{id: id} }

// IsTierNotFound reports whether err indicates an unknown tier id.
func IsTierNotFound(err error) bool {
	_, ok := err.(tierNotFoundError)
	return ok
}

// artifactInUseError signals an attempt to remove an artifact backing a
// loaded instance.
type artifactInUseError struct{ id string }

func (e artifactInUseError) Error() string { return "artifact in use by a loaded instance: " + e.id }

// IsArtifactInUse reports whether err indicates a removal of an active artifact.
func IsArtifactInUse(err error) bool {
	_, ok := err.(artifactInUseError)
	return ok
}
