package cli

// Version is the current loxvm version, overridable at build time via
// -ldflags "-X github.com/funvibe/loxvm/pkg/cli.Version=...".
var Version = "0.1.0"
