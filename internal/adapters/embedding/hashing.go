package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimensions is the fixed width of hashed term vectors.
const DefaultDimensions = 500

// HashingVectorizer embeds text locally as an L2-normalized, sublinear
// term-frequency vector using the hashing trick. Vectors never depend on
// the rest of the corpus, so stored embeddings stay valid as documents
// are added or removed.
type HashingVectorizer struct {
	dims      int
	stopWords map[string]bool
}

// NewHashingVectorizer creates a vectorizer producing dims-wide vectors.
func NewHashingVectorizer(dims int) *HashingVectorizer {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	stop := make(map[string]bool, len(englishStopWords))
	for _, w := range englishStopWords {
		stop[w] = true
	}
	return &HashingVectorizer{dims: dims, stopWords: stop}
}

// Embed generates a vector for a single text.
func (v *HashingVectorizer) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, tok := range v.tokenize(text) {
		counts[tok]++
	}

	vec := make([]float64, v.dims)
	for tok, n := range counts {
		idx, sign := v.bucket(tok)
		vec[idx] += sign * (1 + math.Log(float64(n)))
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	out := make([]float32, v.dims)
	if norm == 0 {
		return out, nil
	}
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out, nil
}

// EmbedBatch generates vectors for multiple texts.
func (v *HashingVectorizer) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := v.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the vector width.
func (v *HashingVectorizer) Dimensions() int {
	return v.dims
}

// tokenize lowercases text and keeps alphanumeric runs of two or more
// characters that are not stop words.
func (v *HashingVectorizer) tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 || v.stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// bucket maps a token to a vector index and a sign that spreads
// collisions around zero.
func (v *HashingVectorizer) bucket(tok string) (int, float64) {
	h := fnv.New32a()
	h.Write([]byte(tok))
	sum := h.Sum32()
	sign := 1.0
	if sum&0x80000000 != 0 {
		sign = -1.0
	}
	return int(sum&0x7fffffff) % v.dims, sign
}

var englishStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "could", "did", "do", "does", "doing", "down", "during", "each", "few", "for", "from", "further",
	"had", "has", "have", "having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "itself", "just", "me", "more", "most", "my", "myself",
	"no", "nor", "not", "now", "of", "off", "on", "once", "only", "or", "other", "our", "ours", "ourselves", "out", "over", "own",
	"same", "she", "should", "so", "some", "such", "than", "that", "the", "their", "theirs", "them", "themselves",
	"then", "there", "these", "they", "this", "those", "through", "to", "too", "under", "until", "up", "very",
	"was", "we", "were", "what", "when", "where", "which", "while", "who", "whom", "why", "will", "with", "would",
	"you", "your", "yours", "yourself", "yourselves",
}
