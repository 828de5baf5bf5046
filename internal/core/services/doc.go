// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go: besides domain and ports they import only the
// logger and google/uuid for run and OAuth state identifiers.
package services
