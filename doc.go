package databind

// Package databind provides:
//
// - Declarative model classes that wrap plain structured values with types,
//   defaults, transforms, validators, and observer hooks (model package)
// - Reactive binding of model instances to UI element slots addressed by
//   dotted field paths (source package)
// - A deferred-execution Promise engine that sequences every asynchronous
//   load and upload (promise package)
// - A stable error split: FieldErrors as recoverable end-user data,
//   ModelError/SourceError as configuration faults
//
// Design policy:
// - Keep only public contracts in the root package; put detailed
//   implementations under internal/.
// - Place model building under model/, built-in validators under rules/,
//   custom value types under valuetype/, and the CLI under cmd/databind.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	cls := model.MustBuild(userSchema())
//	ds := source.MustNew(cls, &source.Options{Default: map[string]any{"age": 0}})
//	if err := ds.Bind(ageField); err != nil { ... }
//	_ = ds.SetValue("age", 42)
//	ok := ds.Validate()
