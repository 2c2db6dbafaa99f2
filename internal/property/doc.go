// Package property reads and writes a project's evaluated build properties.
//
// The evaluated property set is owned by the build engine. This package only
// models access to it: the Accessor and Writer interfaces that the rest of the
// project system consumes, the delimited-list helpers used for multi-valued
// properties such as TargetFrameworks, and Store, an implementation over JSON
// evaluation snapshots in the shape produced by
//
//	msbuild -getProperty:TargetFrameworks -getProperty:ProjectGuid ...
//
// which is
//
//	{"Properties": {"TargetFrameworks": "net461;netcoreapp1.1", "ProjectGuid": "{...}"}}
package property
