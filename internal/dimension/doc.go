// Package dimension resolves a project's configuration dimensions.
//
// A configuration dimension is a named axis of build configuration, such as
// TargetFramework, Platform or Configuration, whose legal values come from a
// delimited evaluated property (TargetFrameworks, Platforms, Configurations).
// The first value is the dimension's default.
//
// Each dimension is served by a Provider. Values are never cached: every call
// re-reads the property through the property.Accessor. A Resolver combines the
// providers of a project into the full dimension map, the default
// configuration and the cross product of all configurations, and routes
// dimension change events to the provider that owns the dimension.
//
// # Changes
//
// The host raises a ChangeEvent twice per change, once with StageBefore and
// once with StageAfter. Editable dimensions (Platform, Configuration) update
// their list property at StageBefore. Every provider posts a DimensionChanged
// telemetry event at StageAfter, hashing the value when the dimension's values
// may contain user data.
package dimension
