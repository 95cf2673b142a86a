//go:build !prod

package build

var Name = "layertrace"
var Version = "v0.0.0-development"
var BuildDate = "unknown"
var Commit = "unknown"
var Mode = ModeDevelopment
