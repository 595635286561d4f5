package govalid

// Package govalid provides:
//
// - A constraint validation engine that walks a value graph (structs, slices, maps)
// - Validation groups, group sequences that stop at the first failing step, and
//   Default-group replacement per type (static or provided by the value)
// - Cascading into nested objects with a per-run visited set, so cyclic graphs terminate
// - A stable error model via ViolationList (property path, code, template, parameters)
//
// Design policy:
// - Keep the engine API in the root package; constraint kinds live under constraints/.
// - Message rendering (i18n/), document decoding (document/) and metrics (metrics/)
//   are optional collaborators; the engine never renders text itself.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  store := govalid.NewMetadataStore()
//  store.MustRegister(govalid.MetadataOf[User]().
//      AddPropertyConstraint("name", constraints.MustNotBlank(nil)).
//      AddPropertyConstraint("address", constraints.MustValid(nil)))
//
//  v := constraints.NewValidator(govalid.WithMetadata(store))
//  violations, err := v.Validate(ctx, &user)
//  violations, err = v.Validate(ctx, "abc", govalid.Constraints(constraints.MustLength(govalid.Options{"min": 5})))
