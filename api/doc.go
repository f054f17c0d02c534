/*
Package api holds the HTTP surface of the sealing service.

The package is organized into two subpackages:

1. server - listener, health and drain endpoints, pprof, metrics and access logging
2. sealhandler - sealing routes and the matching HTTP client

# Routes

	POST /generate-secret      seal once with {"key_id": "..."}
	GET  /public-key           sealed secp256k1 public key and its address
	GET  /nums-public-key      NUMS seed, counter and DER encoding
	GET  /attested-public-key  public key with a quote over its hash
	GET  /health               always "OK"

# Errors

Sealing errors map onto distinct status codes so that clients can tell
them apart:

	ErrAlreadySealed        409 Conflict
	ErrNotSealed            404 Not Found
	ErrOracle               502 Bad Gateway
	ErrMissingSecret        500 Internal Server Error
	ErrInvalidSecretLength  500 Internal Server Error
*/
package api
