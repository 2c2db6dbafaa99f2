// Package project identifies the projects the project system works on.
//
// A Project is the unconfigured project: its file path and the capability set
// it advertises. Everything else (evaluated properties, configurations,
// diagnostics) is obtained through collaborators that take a *Project.
//
// # Subpackages
//
//   - vfs: file-system capability used to probe for reference assemblies
//   - watcher: change notification for evaluated-property snapshots
package project
