// Package store keeps the storefront session on the client: the access/refresh
// token pair and the last known user record.
//
// Values are obfuscated before they reach the underlying Storage. The
// obfuscation only deters casual inspection of a session file; it is not
// encryption and provides no integrity guarantee.
//
// Reads never fail: missing, corrupt or expired values are reported as absent.
// Two Storage implementations ship with the package, an in-memory map and a
// JSON document persisted through github.com/viant/afs (file://, mem:// or any
// other afs scheme).
package store
