// Package assemble owns the container encoder for one conversion.
//
// A Session stages output under a hidden temporary name next to the
// destination, holds an advisory lock on the destination while it is open,
// and publishes by rename only after the encoder finalizes. Every Session
// ends in exactly one of Finalize or Abort; callers defer Close so error and
// cancellation paths abort without extra bookkeeping. Appends are serialized
// by the caller: a Session is not safe for concurrent use.
package assemble
