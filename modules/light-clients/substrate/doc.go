/*
Package substrate contains the Substrate primitives shared by the GRANDPA and BEEFY light
clients: block headers and digests, storage keys, the timestamp inherent, parachain head
inclusion proofs and the default host functions.
*/
package substrate
