package catalog

// incompatibleSystemError signals that no tier of a kind fits the host.
type incompatibleSystemError struct{ kind string }

func (e incompatibleSystemError) Error() string {
	return "no compatible model tier for this system (kind: " + e.kind + ")"
}

// IsIncompatibleSystem reports whether err indicates an incompatible host.
func IsIncompatibleSystem(err error) bool {
	_, ok := err.(incompatibleSystemError)
	return ok
}
