// Package generator produces synthetic bank reviews.
//
// Generation is pure: no I/O, no database access. Randomness and the clock
// are injectable so tests can pin both.
package generator

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

// Generator builds sample reviews for a single bank.
// Not safe for concurrent use; the underlying random source is shared.
type Generator struct {
	rng         *rand.Rand
	now         func() time.Time
	descriptors reviewseed.DescriptorMode
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

// WithSeed seeds a deterministic PCG source.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithClock sets the function used for "today".
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithDescriptors selects how the review word relates to the sentiment.
func WithDescriptors(mode reviewseed.DescriptorMode) Option {
	return func(g *Generator) {
		g.descriptors = mode
	}
}

// New creates a Generator. Without options it uses an unseeded source, the
// wall clock, and DescriptorMatched.
func New(opts ...Option) *Generator {
	g := &Generator{
		now:         time.Now,
		descriptors: reviewseed.DescriptorMatched,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// Generate returns exactly n reviews for bankName. n <= 0 yields an empty,
// non-nil slice.
func (g *Generator) Generate(n int, bankName string) []reviewseed.Review {
	if n < 0 {
		n = 0
	}
	short := Initialism(bankName)
	today := g.now()

	reviews := make([]reviewseed.Review, 0, n)
	for i := 0; i < n; i++ {
		sentiment := g.pickSentiment()
		reviews = append(reviews, reviewseed.Review{
			BankName: bankName,
			Text: fmt.Sprintf("Review %d: This is a sample review for %s. Service was %s.",
				i+1, short, g.descriptor(sentiment)),
			Sentiment: sentiment,
			Date:      g.pastDate(today),
		})
	}
	return reviews
}

func (g *Generator) pickSentiment() reviewseed.Sentiment {
	return reviewseed.Sentiments[g.rng.IntN(len(reviewseed.Sentiments))]
}

// descriptor returns the service word for the review text.
// In independent mode the word comes from two fresh draws: a first draw of
// Positive gives "great", otherwise a second draw of Negative gives "poor",
// otherwise "average". The stored sentiment is ignored.
func (g *Generator) descriptor(sentiment reviewseed.Sentiment) string {
	if g.descriptors == reviewseed.DescriptorIndependent {
		if g.pickSentiment() == reviewseed.SentimentPositive {
			return Descriptor(reviewseed.SentimentPositive)
		}
		if g.pickSentiment() == reviewseed.SentimentNegative {
			return Descriptor(reviewseed.SentimentNegative)
		}
		return Descriptor(reviewseed.SentimentNeutral)
	}
	return Descriptor(sentiment)
}

// pastDate returns today minus U[1, MaxReviewAgeDays] days as an ISO date.
func (g *Generator) pastDate(today time.Time) string {
	days := 1 + g.rng.IntN(reviewseed.MaxReviewAgeDays)
	return today.AddDate(0, 0, -days).Format(reviewseed.ReviewDateLayout)
}

// Descriptor maps a sentiment to the word used in review text.
func Descriptor(s reviewseed.Sentiment) string {
	switch s {
	case reviewseed.SentimentPositive:
		return "great"
	case reviewseed.SentimentNegative:
		return "poor"
	default:
		return "average"
	}
}

// Initialism abbreviates a bank name to the capitals of its significant
// words: "Commercial Bank of Ethiopia" becomes "CBE". Names that yield
// fewer than two letters are returned unchanged.
func Initialism(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		if unicode.IsUpper(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() < 2 {
		return name
	}
	return b.String()
}
