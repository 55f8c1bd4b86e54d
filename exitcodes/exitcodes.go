// Package exitcodes defines the exit codes used by op-testreport.
package exitcodes

// Exit code constants used by op-testreport
//
// * Success (0): The report was written and no test failed, or failures are not fatal
// * TestFailure (1): The report contains failed tests and --fail-on-failures is set
// * RuntimeErr (2): Bad flags, unreadable capture files or other operational failures
const (
	Success     = 0 // Report written
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors
)
