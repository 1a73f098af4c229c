/*
Package passkey verifies WebAuthn assertions made by passkey bound member
keys.

An assertion proves that the holder of a P-256 key approved exactly one
action on one target with one payload, at a recent point of the ledger
history. The expected challenge is

	sha256(action || target || messageHash || recentHash || clientDeviceHash)

and the authenticator must have signed the standard WebAuthn message

	rpIdHash || authenticatorData || sha256(clientDataJSON)

for a relying party and origin whitelisted by a DomainConfig.
*/
package passkey
