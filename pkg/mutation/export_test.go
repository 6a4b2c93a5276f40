package mutation

// Internals exposed to the external test package.

// ForceInRange exposes the range-preserving fold for property tests.
var ForceInRange = forceInRange

// DefaultMaxSize exposes the fallback size bound.
const DefaultMaxSize = defaultMaxSize
