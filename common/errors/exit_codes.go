package errors

type ExitCode int

const (
	// Generic failure: bad flags, unreadable config, cluster unreachable.
	GenericFailureExitCode ExitCode = 1

	// Sizing failures
	InfeasibleSizeExitCode    ExitCode = 10
	ToleranceExceededExitCode ExitCode = 11
	InvalidTemplateExitCode   ExitCode = 12

	ClusterFetchFailureExitCode ExitCode = 20
	ConfigFailureExitCode       ExitCode = 30
)
