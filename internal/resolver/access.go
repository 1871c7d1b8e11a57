package resolver

// accessChecker answers permission questions for the current process.
type accessChecker interface {
	Readable(path string) error
	Executable(path string) error
}

type systemAccess struct{}
