package utils

// LfqVersion is set from source control at build time.
var LfqVersion string = "unknown"
