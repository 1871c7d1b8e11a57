//go:build !unix

package preflight

// MinFileDescriptors is the minimum recommended file descriptor limit.
const MinFileDescriptors = 1024

// CheckFileDescriptors is not applicable on this platform.
func (c *Checker) CheckFileDescriptors() CheckResult {
	return CheckResult{
		Name:    "file_descriptors",
		Status:  StatusPass,
		Message: "not applicable",
	}
}
