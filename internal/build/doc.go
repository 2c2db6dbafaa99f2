// Package build surfaces design-time build diagnostics.
//
// A LoggerProvider is created per project. It owns the project's ErrorTable
// and hands the build engine a single Logger for every design-time build.
// The Logger listens to the build's EventSource: a build-started event
// clears the table, errors and warnings become immutable Entry values
// published to every table subscriber.
//
// ErrorList is an in-memory table manager that keeps the current entries of
// every registered table; the CLI prints from it.
package build
