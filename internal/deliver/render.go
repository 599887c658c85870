// Package deliver renders a composition into the per-attempt presentation a
// learner sees. Rendering is a pure function of (composition, questions, seed):
// a suspended attempt can be re-rendered from its seed alone, so the rendered
// order is never persisted.
package deliver

import (
	"hash/fnv"
	"math/rand"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
)

// QuestionView is one question as presented to a learner. Answer keys are
// stripped unless the composition opts into revealing them.
type QuestionView struct {
	ID      string            `json:"id"`
	Type    bank.QuestionType `json:"type"`
	Text    string            `json:"text"`
	Options []string          `json:"options,omitempty"`
	Marks   int               `json:"marks"`

	Answer      *bank.AnswerKey `json:"answer_key,omitempty"`
	Explanation string          `json:"explanation,omitempty"`
}

type Presentation struct {
	CompositionID string         `json:"composition_id"`
	Seed          int64          `json:"seed"`
	Questions     []QuestionView `json:"questions"`
}

// Render produces the presentation order for one attempt. Question order is a
// Fisher-Yates permutation seeded from (seed, composition id); each question's
// option order is seeded from (seed, question id) so it is independent of the
// question permutation but stable within the attempt. The questions slice must
// be in composition order.
func Render(comp compose.Composition, questions []bank.Question, seed int64) Presentation {
	order := make([]int, len(questions))
	for i := range order {
		order[i] = i
	}
	if comp.ShuffleQuestions {
		shuffle(order, subSeed(seed, comp.ID))
	}

	views := make([]QuestionView, 0, len(questions))
	for _, idx := range order {
		q := questions[idx]
		view := QuestionView{
			ID:    q.ID,
			Type:  q.Type,
			Text:  q.Text,
			Marks: q.Marks,
		}
		if len(q.Options) > 0 {
			opts := make([]string, len(q.Options))
			copy(opts, q.Options)
			if comp.ShuffleOptions {
				perm := make([]int, len(opts))
				for i := range perm {
					perm[i] = i
				}
				shuffle(perm, subSeed(seed, q.ID))
				shuffled := make([]string, len(opts))
				for i, p := range perm {
					shuffled[i] = opts[p]
				}
				opts = shuffled
			}
			view.Options = opts
		}
		if comp.ShowCorrectAnswers {
			key := q.Answer
			view.Answer = &key
			view.Explanation = q.Explanation
		}
		views = append(views, view)
	}
	return Presentation{CompositionID: comp.ID, Seed: seed, Questions: views}
}

// shuffle is an in-place Fisher-Yates permutation driven by its own PRNG so
// that two shuffles with different sub-seeds never interleave draws.
func shuffle(idx []int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := len(idx) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
}

// subSeed mixes the attempt seed with a stable identifier. FNV-1a keeps it
// deterministic across processes; this is reproducibility, not security.
func subSeed(seed int64, id string) int64 {
	h := fnv.New64a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(uint64(seed) >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64())
}

// SeedFromAttempt derives the render seed from an attempt id, so callers only
// persist the id.
func SeedFromAttempt(attemptID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(attemptID))
	return int64(h.Sum64())
}
