/*
Package txbuffer stages vault transactions too large for a single call.

A buffer commits at creation to the hash and size of the final payload and
to the ordered hashes of the chunks it will be filled with. Chunks are
appended one call at a time and must match the committed hashes, so a
payload cannot be changed once members started approving it. Members vote
on the final hash, an executor authorizes execution once the threshold is
reached and the buffered message is then executed under the vault
authority. A buffer is valid for a limited time. After that only its payer
can close it to reclaim the storage.
*/
package txbuffer
