package evidence

import "crypto/sha256"

// RFC 6962 Merkle tree hashing over the entry hashes. Leaves are prefixed
// with 0x00 and internal nodes with 0x01; an empty tree hashes the empty
// string. The left subtree size is the largest power of two strictly less
// than the leaf count.

func merkleRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		sum := sha256.Sum256(nil)
		return sum[:]
	}
	if len(leaves) == 1 {
		return leafHash(leaves[0])
	}
	k := splitPoint(len(leaves))
	return nodeHash(merkleRoot(leaves[:k]), merkleRoot(leaves[k:]))
}

func leafHash(leaf []byte) []byte {
	h := sha256.New()
	h.Write([]byte{0x00})
	h.Write(leaf)
	return h.Sum(nil)
}

func nodeHash(left, right []byte) []byte {
	h := sha256.New()
	h.Write([]byte{0x01})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// splitPoint returns the largest power of two strictly less than n (n >= 2).
func splitPoint(n int) int {
	k := 1
	for k*2 < n {
		k *= 2
	}
	return k
}

// merkleInclusionProof returns the audit path for leaf index i, ordered from
// the leaf level upward.
func merkleInclusionProof(leaves [][]byte, i int) [][]byte {
	if i < 0 || i >= len(leaves) || len(leaves) == 1 {
		return nil
	}
	k := splitPoint(len(leaves))
	if i < k {
		path := merkleInclusionProof(leaves[:k], i)
		return append(path, merkleRoot(leaves[k:]))
	}
	path := merkleInclusionProof(leaves[k:], i-k)
	return append(path, merkleRoot(leaves[:k]))
}

// verifyInclusion checks an audit path against a known root.
func verifyInclusion(leaf []byte, index, size int, path [][]byte, root []byte) bool {
	if index < 0 || index >= size || size < 1 {
		return false
	}
	computed, ok := rootFromPath(leaf, index, size, path)
	return ok && equalBytes(computed, root)
}

// rootFromPath rebuilds the subtree root for a leaf at position index in a
// subtree of the given size, consuming the audit path from its outermost
// (top) element inward.
func rootFromPath(leaf []byte, index, size int, path [][]byte) ([]byte, bool) {
	if size == 1 {
		if len(path) != 0 {
			return nil, false
		}
		return leafHash(leaf), true
	}
	if len(path) == 0 {
		return nil, false
	}
	sibling := path[len(path)-1]
	rest := path[:len(path)-1]
	k := splitPoint(size)
	if index < k {
		sub, ok := rootFromPath(leaf, index, k, rest)
		if !ok {
			return nil, false
		}
		return nodeHash(sub, sibling), true
	}
	sub, ok := rootFromPath(leaf, index-k, size-k, rest)
	if !ok {
		return nil, false
	}
	return nodeHash(sibling, sub), true
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
