/*
Package freshness implements the append-only registry of recent ledger hashes.

Every entry binds a strictly increasing reference number to a hash. Passkey
assertions commit to one such hash, which makes a signed challenge useless
once its reference falls out of the accepted window.
*/
package freshness
