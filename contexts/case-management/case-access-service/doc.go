// Package caseaccess implements the case-access authorization service.
//
// Layering:
// - domain: case/grant entities, the role policy engine, sentinel errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence and event relay
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs and the response status policy
//
// Boundary notes:
// - Keep this module self-contained under the case-management context.
// - Identity verification is upstream; this module trusts the resolved
//   identity and only decides what it may see and do.
// - All read-access denials leave the module as the not-found mask so
//   transports cannot leak resource existence.
package caseaccess
