package tensorid

import (
	"encoding/binary"

	"github.com/dchest/siphash"
	"golang.org/x/crypto/blake2b"
)

// hashKeys are fixed, unexported siphash keys. They exist only to give the
// hash a stable seed across a process's lifetime (and across processes,
// for reproducible traces) — they are not a security boundary. Mirrors
// SnellerInc/sneller/expr/redact.go's redactBuf, which uses the same
// fixed-key siphash idiom for deterministic, non-cryptographic hashing.
const (
	hashK0, hashK1 = 0x5dee, 0xeb17
)

// StructuralHash computes a deterministic 64-bit fingerprint for a node's
// canonicalization key: its kind tag together with the canonical IDs of
// its (recursively resolved) children. The lowering pass uses this to
// collapse distinct source-DAG nodes that structurally denote the same
// tensor when the caller-supplied Translation does not already carry an
// explicit entry for the pair — i.e. it gives the "two id-spaces...
// equivalence class" collapsing described in spec §3/§9 a concrete,
// deterministic implementation, rather than requiring every producer of a
// DAG to have already done the collapsing itself. The hash depends on the
// order of children: the same IDs in a different order hash differently.
func StructuralHash(kind uint8, children []ID) uint64 {
	buf := make([]byte, 1+8*len(children))
	buf[0] = kind
	for i, c := range children {
		binary.LittleEndian.PutUint64(buf[1+8*i:], uint64(c))
	}
	return siphash.Hash(hashK0, hashK1, buf)
}

// ContentKey fingerprints arbitrary bytes. The lowering pass calls it on a
// named host operator's name (lower.opNameID) to derive a stable operator
// ID without a translation entry; tensor leaves are not keyed by it.
// Grounded on
// SnellerInc/sneller/fsenv.go, which fingerprints file content with
// blake2b for the same reason: content, not caller-supplied naming, is the
// authoritative identity.
func ContentKey(data []byte) [32]byte {
	return blake2b.Sum256(data)
}
