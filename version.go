package vignette

// Version is the library version. Release builds override it with -ldflags.
var Version = "0.1.0-dev"
