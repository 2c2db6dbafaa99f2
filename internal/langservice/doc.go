// Package langservice synchronizes project state into a language-service
// project context.
//
// The host side is represented by narrow interfaces: a Host that signals
// when it has finished initializing and exposes the active ProjectContext,
// and an ActiveConfiguredProject that evaluates properties of the currently
// selected configuration. Workspace is an in-memory implementation of both
// host interfaces used by the CLI and tests.
//
// RuntimeReferences adds the framework runtime assemblies of legacy
// Visual Basic projects to the project context, once.
package langservice
