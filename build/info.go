package build

type BuildMode string

const (
	ModeDevelopment BuildMode = "development"
	ModeProduction  BuildMode = "production"
)

func IsDevelopment() bool {
	return Mode == ModeDevelopment
}

func IsProduction() bool {
	return Mode == ModeProduction
}

// Environment is the deployment environment reported on telemetry resources.
func Environment() string {
	return string(Mode)
}
