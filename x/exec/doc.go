/*
Package exec runs a vault transaction message as a sequence of delegated
calls signed by the vault authority.

A message references accounts either directly or through address lookup
tables. Before anything runs, the accounts supplied with the call are
checked against the message and the lookup tables, and every account the
message marks as a signer must have signed, except the vault authority
that is signed for by the program itself. No call may write to a protected
account.
*/
package exec
