package service

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/Strob0t/planforge/internal/port/solver"
)

// CacheKey identifies one solver invocation by everything that can change
// its result: the solver, the staged inputs and the time budget. Fields are
// length-prefixed so no two distinct inputs share a key.
func CacheKey(solverName string, p solver.Problem) string {
	h, _ := blake2b.New256(nil) // only fails for oversized keys
	var n [8]byte
	for _, part := range []string{
		solverName,
		p.Domain,
		p.ActionExtensions,
		p.Problem,
		strconv.FormatInt(int64(p.Timeout), 10),
	} {
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return "outcome:" + hex.EncodeToString(h.Sum(nil))
}
