// Package sealhandler serves the sealing routes and provides a client for them.
//
// Handler wraps an interfaces.Sealer together with the NUMS key it was built
// against and an attestation provider. Client speaks the same routes and maps
// status codes back onto the interfaces error values, so
// errors.Is(err, interfaces.ErrAlreadySealed) works on both sides.
package sealhandler
