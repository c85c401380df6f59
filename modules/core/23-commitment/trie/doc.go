/*
Package trie implements verification of Substrate storage proofs on top of the gossamer trie.

A proof is the unordered set of encoded trie nodes visited while looking up one or more
keys. Nodes are addressed by the BLAKE2-256 hash of their encoding, except for children
whose encoding is shorter than a hash, which are stored inline in their parent. The lookup
is gossamer's database lookup run against the proof nodes; a lookup that reaches a node
absent from the proof fails rather than reporting the key as missing. Only the state
version 0 layout, where values are always stored inline, is supported.
*/
package trie
