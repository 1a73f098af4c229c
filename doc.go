/*
Package vault defines the common interfaces and primitive types of a
multisig vault usable by ordinary ed25519 keys and by WebAuthn passkey bound
P-256 keys.

The core is a library driven by an outer dispatcher. Every call runs to
completion or aborts: handlers validate eagerly, mutate only after all checks
passed and rely on a cache wrapped store (see x/utils.Savepoint) so that no
partial state is ever persisted.

We pass context through context.Context between dispatcher, decorators and
handlers. To do so, this package defines some common keys to store info, such
as block time, chain id and the program identity. Each extension may add its
own keys to enrich the context with specific data.

There should exist two functions for every XYZ of type T that we want to
support in Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)

WithXYZ may panic if the value was previously set to avoid lower-level modules
overwriting the value (eg. height, chain id).
*/
package vault
