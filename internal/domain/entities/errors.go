package entities

import "errors"

var (
	// ErrUpstreamUnavailable indicates all attempts against the upstream source failed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMirrorUnavailable indicates the mirror could not be fetched or parsed.
	// Callers treat the mirror as unknown and carry on.
	ErrMirrorUnavailable = errors.New("mirror unavailable")

	// ErrRecipeMalformed indicates a required field is missing from a recipe.
	ErrRecipeMalformed = errors.New("recipe malformed")

	// ErrAssetMissing indicates a companion asset listed in the definition is absent.
	ErrAssetMissing = errors.New("companion asset missing")

	// ErrInvalidRecord indicates a decision record is incomplete or unreadable.
	ErrInvalidRecord = errors.New("invalid decision record")

	// ErrDowngrade indicates upstream reports an older version than the recipe.
	ErrDowngrade = errors.New("upstream version is older than local version")

	// ErrSignatureInvalid indicates the artifact signature did not verify.
	ErrSignatureInvalid = errors.New("artifact signature invalid")

	// ErrInvalidDefinition indicates the package definition is unusable.
	ErrInvalidDefinition = errors.New("invalid package definition")
)
