package music

import (
	"slices"

	"go.uber.org/zap"
)

// Merge places a phrase from another part into this part's timeline,
// scanning forward from index from, and returns where the next phrase of
// that part should be looked for. A phrase already present (a refrain
// shared by both parts) is not added again. Phrases of the other part must
// arrive in time order, since earlier entries are never scanned again.
func (p *Part) Merge(phrase Phrase, from int) int {
	for index := from; index < len(p.Phrases); index++ {
		existing := p.Phrases[index]
		if existing.Equal(phrase) {
			return index
		}
		if phrase.Start < existing.Start && phrase.End < existing.End {
			p.Phrases = slices.Insert(p.Phrases, index, phrase)
			return index + 1
		}
	}
	p.Phrases = append(p.Phrases, phrase)
	return len(p.Phrases)
}

// mergeParts folds every part into the first one
func mergeParts(parts []*Part, logger *zap.Logger) *Part {
	if len(parts) == 0 {
		return &Part{}
	}
	merged := &Part{Phrases: append([]Phrase(nil), parts[0].Phrases...)}
	for n, part := range parts[1:] {
		from := 0
		for _, phrase := range part.Phrases {
			before := len(merged.Phrases)
			next := merged.Merge(phrase, from)
			if len(merged.Phrases) > before && next < len(merged.Phrases) {
				logger.Debug("inserted phrase",
					zap.Int("part", n+1),
					zap.Uint32("start", uint32(phrase.Start)),
					zap.Uint32("end", uint32(phrase.End)),
					zap.String("text", phrase.Text()),
					zap.String("before", merged.Phrases[next].Text()),
				)
			}
			from = next
		}
	}
	return merged
}
