/*
Package errors implements the error model shared by all vault extensions.

Every error returned by this module wraps one of a small set of registered
root errors. A root error carries a unique numeric code and belongs to exactly
one Class, so that a caller can always tell which invariant was violated and
which family of failure it is dealing with:

	Authorization  missing signer, insufficient permission, threshold unmet,
	               wrong domain binding
	Validation     duplicate/too many/too few members, bad threshold,
	               malformed message, size or hash mismatch
	Freshness      stale replay token, expired buffer, unknown reference
	Storage        wrong record size, missing record
	Structural     account list or lookup table inconsistency, protected
	               account write attempt

Register custom root errors in the extension that owns them using
Register(class, code, description), and create runtime instances with
ErrXyz.New, ErrXyz.Newf or Wrap so that a stack trace is attached at the
point of creation. Do not declare wrapped errors as package variables, the
recorded stack trace would be useless.

Once you have an error, you can use fmt to get more context

	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
