// Package view provides the concrete child elements driven by the scenario
// harness and the sitter CLI.
//
// A View is identified by its CID and may be bound to a Model, which acts as
// its owner for container lookups. Views record every lifecycle call so
// scenarios can assert on what Apply and Call reached.
package view
