// Package registry provides the central "glue" for the component-type system.
//
// The Registry stores mappings between the string type tags used in state
// documents (e.g., "SingleChannel") and the type descriptors that describe
// how to construct such a component: its fields, their type expressions,
// defaults, and the before/after ordering hints consumed by config
// generation. It also stores the compiled Go contribution functions that
// component types register for the config-generation pass.
//
// The registry is populated during application startup (from Go registration
// calls or HCL manifests) and is read-only once tree construction begins.
package registry
