// Package sealing commits the sealed key pair exactly once per process.
//
// Seal runs in three steps:
//
//  1. If a key pair is already committed, fail with ErrAlreadySealed without
//     calling the oracle.
//  2. Acquire the 32-byte secret and derive a candidate secp256k1 key pair.
//  3. Compare-and-swap the candidate into an empty slot. Losing callers
//     discard their candidate and fail with ErrAlreadySealed.
//
// No lock is held while the oracle call is in flight. The slot never goes
// back to empty, so PublicKey always returns the same bytes once sealed.
package sealing
