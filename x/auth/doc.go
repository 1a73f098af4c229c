/*
Package auth resolves the member key that authorized a call.

A signer proves possession either directly, by signing the transaction
with its ed25519 key, or with a WebAuthn assertion made by a passkey. A
passkey assertion must be bound to the domain configuration the member was
registered with, and its freshness reference must be newer than any
reference used against the same vault before.
*/
package auth
