package commands

// SplitSubChunks exports splitSubChunks for testing.
var SplitSubChunks = splitSubChunks //nolint:gochecknoglobals // test export
