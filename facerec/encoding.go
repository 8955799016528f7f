package facerec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// EmbeddingSize is the dimension every face embedding must have.
// The external extractor produces 128 float64 values per face; anything
// else is rejected at the codec boundary.
const EmbeddingSize = 128

// Embedding is a fixed-length face descriptor vector.
type Embedding []float64

// ErrBadEncoding reports a stored face encoding that cannot be decoded
// into a valid embedding.
var ErrBadEncoding = errors.New("facerec: bad face encoding")

// DecodeEncoding turns a stored face encoding into an Embedding.
//
// Enrollments written by older versions of the app stored the vector as a
// base64 string, newer ones store the raw little-endian float64 bytes, so
// we try base64 first and fall back to raw bytes.
func DecodeEncoding(raw []byte) (Embedding, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty encoding", ErrBadEncoding)
	}

	data := raw
	if decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(raw))); err == nil {
		data = decoded
	}

	if len(data)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of float64 values", ErrBadEncoding, len(data))
	}
	n := len(data) / 8
	if n != EmbeddingSize {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrBadEncoding, n, EmbeddingSize)
	}

	emb := make(Embedding, n)
	for i := range emb {
		emb[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return emb, nil
}

// EncodeEmbedding serializes an embedding to its canonical storage form:
// raw little-endian float64 bytes, no padding. New enrollments are always
// written in this form.
func EncodeEmbedding(emb Embedding) []byte {
	out := make([]byte, len(emb)*8)
	for i, v := range emb {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}
