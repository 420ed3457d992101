// Package password provides the credential hashing and strength-policy
// primitives used by the authkit engine.
//
// Hashing uses argon2id with a random per-call salt, serialized in PHC
// string format, so two hashes of the same input never compare equal as
// strings. Equality checks must go through [Hasher.Verify].
//
// The strength [Policy] is pure configuration: each rule toggles
// independently and validation reports the first unmet rule with a
// message specific to that rule.
package password
