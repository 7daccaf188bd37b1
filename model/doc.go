// Package model builds runtime model classes from declarative schemas.
//
// Overview
//   - Build/MustBuild: turn a Schema (a tagged field tree) into an immutable
//     *Class shared by every instance it produces.
//   - Class.New: apply an input object through the full write pipeline and
//     produce an *Instance holding the value tree plus its field errors.
//   - Instance.Set/SetValues: incremental writes through the same pipeline,
//     tagged as updates instead of init.
//   - Class.Extend/Define: run-time additive extension. Configuration is
//     monotonic: a field contract can gain validators and observers but can
//     never be redefined with a different type or transform.
//   - BuildArray/MustBuildArray: the same capability for ordered collections
//     of instances, with add/update/remove/clear lifecycle observers.
//
// Write pipeline (update): global-before, per-path-before, set transform,
// default/notNull handling, type coercion, store, validators, per-path-after,
// global-after. Wholesale assignment (New/SetObject) instead runs init-before
// once, then per field: transform, coercion, store, validators, per-path
// observers tagged init, and finally init-after once.
//
// Validation failures are data, not errors: they accumulate in the
// instance's FieldErrors and clear when input is corrected. ModelError is
// reserved for configuration faults (type conflicts, malformed schemas,
// notNull writes) that indicate a programming mistake.
//
// File layout (roles)
//   - schema.go: Schema/Fields/Field declarations and the Build walk.
//   - class.go: Class storage, Extend/Define merge rules, New.
//   - instance.go: Instance value tree, write pipeline, validation state.
//   - observer.go: observer hook types and dispatch order.
//   - value.go: value-tree helpers (lookup/store/flatten/deep copy).
//   - array.go: ArraySchema/ArrayClass/ArrayInstance collection model.
//   - export.go: JSON Schema export for built classes.
package model
