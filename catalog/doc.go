// Package catalog reads and writes collections of gate definitions.
//
// The text form is HCL, one block per gate:
//
//	gate "CRX" {
//	  parameters = ["theta"]
//	  matrix = [
//	    [1, 0, 0, 0],
//	    [0, 1, 0, 0],
//	    [0, 0, cos(theta/2), -i*sin(theta/2)],
//	    [0, 0, -i*sin(theta/2), cos(theta/2)],
//	  ]
//	}
//
//	gate "CYCLE" {
//	  permutation = [1, 2, 3, 0]
//	}
//
//	gate "ZZ" {
//	  parameters = ["theta"]
//	  arguments  = ["p", "q"]
//	  term {
//	    paulis      = "ZZ"
//	    arguments   = ["p", "q"]
//	    coefficient = theta/2
//	  }
//	}
//
// The binary form is a msgpack snapshot written by WriteSnapshot.
package catalog
