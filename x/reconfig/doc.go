/*
Package reconfig creates vaults and changes their configuration.

A configuration change is a batch of actions applied in order. Adding or
removing a delegate member creates or closes its delegate record. Those
side effects are collected per key while the batch is applied and only the
net result is written, so a key added and removed within one batch leaves
no trace. The final settings are validated once, after the whole batch.
*/
package reconfig
