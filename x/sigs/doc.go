/*
Package sigs provides basic authentication middleware to verify the ed25519
signatures of direct member keys on a call and maintain per key nonces for
replay protection.

Passkey bound keys do not sign calls. Their authority is established by
x/auth and x/passkey.
*/
package sigs
