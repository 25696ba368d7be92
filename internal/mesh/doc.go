// Package mesh owns the triangle surface model shared by the alignment and
// classification stages.
//
// Responsibilities: point/face storage, axis-aligned bounds, deep copies,
// in-place scale and translate, and per-point curvature estimators.
// Key types: Mesh, RGB.
//
// Dependency rule: mesh depends only on gonum. File formats live in
// internal/stlio, never here.
package mesh
