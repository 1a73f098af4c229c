/*
Package settings holds the vault configuration: the members, their
permissions and roles, the voting threshold and the freshness token that
every passkey assertion must exceed.

Settings are validated after every mutation. A configuration that breaks
any of the member, role or threshold rules is never persisted.
*/
package settings
