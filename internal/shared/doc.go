// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a buffering slog handler for asserting on
// log output in tests:
//
//	logger, handler := testutil.NewTestLogger(t)
//	svc := NewSomething(logger)
//	svc.Do()
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "done")
package shared
