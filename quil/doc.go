// Package quil models the instruction set of the Quil quantum assembly
// language: classical memory declarations and LOAD/STORE addressing, gate
// instructions with their modifier stacks, Pauli-sum operators, gate
// definitions, and synthesis of a gate into the unitary matrix it applies
// to an n-qubit register.
//
// Every entity is a value with a canonical String form. Constructors
// validate their input and return a typed error wrapping one of the Err*
// kinds, so callers can classify failures with errors.Is.
package quil
