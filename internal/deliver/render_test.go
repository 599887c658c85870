package deliver

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/teacherpk/assessment/internal/bank"
	"github.com/teacherpk/assessment/internal/compose"
)

func fixture(n int, shuffleQ, shuffleO bool) (compose.Composition, []bank.Question) {
	questions := make([]bank.Question, 0, n)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("q%02d", i)
		questions = append(questions, bank.Question{
			ID:      id,
			Type:    bank.MCQSingle,
			Text:    "pick one",
			Options: []string{"opt-a", "opt-b", "opt-c", "opt-d"},
			Answer:  bank.TextAnswer("opt-a"),
			Marks:   1,
		})
		ids = append(ids, id)
	}
	comp := compose.Composition{
		ID:               "comp-1",
		Kind:             compose.KindQuiz,
		QuestionIDs:      ids,
		ShuffleQuestions: shuffleQ,
		ShuffleOptions:   shuffleO,
	}
	return comp, questions
}

func questionOrder(p Presentation) []string {
	out := make([]string, len(p.Questions))
	for i, q := range p.Questions {
		out[i] = q.ID
	}
	return out
}

func TestRenderDeterministic(t *testing.T) {
	comp, questions := fixture(10, true, true)
	a := Render(comp, questions, 12345)
	b := Render(comp, questions, 12345)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed must reproduce the identical presentation")
	}
}

func TestRenderNoShuffleKeepsOrder(t *testing.T) {
	comp, questions := fixture(6, false, false)
	p := Render(comp, questions, 99)
	if !reflect.DeepEqual(questionOrder(p), comp.QuestionIDs) {
		t.Fatalf("order changed without shuffle: %v", questionOrder(p))
	}
	for _, q := range p.Questions {
		if !reflect.DeepEqual(q.Options, []string{"opt-a", "opt-b", "opt-c", "opt-d"}) {
			t.Fatalf("options reordered without shuffle: %v", q.Options)
		}
	}
}

func TestRenderShufflePermutes(t *testing.T) {
	comp, questions := fixture(10, true, false)
	moved := 0
	for seed := int64(1); seed <= 20; seed++ {
		p := Render(comp, questions, seed)
		order := questionOrder(p)
		// A permutation never loses or duplicates questions.
		seen := map[string]bool{}
		for _, id := range order {
			seen[id] = true
		}
		if len(seen) != len(questions) {
			t.Fatalf("seed %d: lost questions: %v", seed, order)
		}
		if !reflect.DeepEqual(order, comp.QuestionIDs) {
			moved++
		}
	}
	if moved == 0 {
		t.Fatal("no seed produced a reordering across 20 seeds")
	}
}

func TestRenderOptionOrderStablePerQuestion(t *testing.T) {
	comp, questions := fixture(4, true, true)
	p := Render(comp, questions, 7)
	// Option order depends on (seed, question id), not on the question's
	// rendered position, so re-rendering keeps each question's options fixed.
	q := Render(comp, questions, 7)
	optsByID := map[string][]string{}
	for _, v := range p.Questions {
		optsByID[v.ID] = v.Options
	}
	for _, v := range q.Questions {
		if !reflect.DeepEqual(optsByID[v.ID], v.Options) {
			t.Fatalf("option order for %s not stable", v.ID)
		}
	}
}

func TestRenderStripsAnswerKeys(t *testing.T) {
	comp, questions := fixture(2, false, false)
	p := Render(comp, questions, 1)
	for _, q := range p.Questions {
		if q.Answer != nil {
			t.Fatal("answer key leaked into learner presentation")
		}
	}
	comp.ShowCorrectAnswers = true
	p = Render(comp, questions, 1)
	for _, q := range p.Questions {
		if q.Answer == nil || q.Answer.Text != "opt-a" {
			t.Fatal("review presentation must include the key")
		}
	}
}

func TestSeedFromAttemptStable(t *testing.T) {
	if SeedFromAttempt("attempt-1") != SeedFromAttempt("attempt-1") {
		t.Fatal("seed derivation must be stable")
	}
	if SeedFromAttempt("attempt-1") == SeedFromAttempt("attempt-2") {
		t.Fatal("different attempts should get different seeds")
	}
}
