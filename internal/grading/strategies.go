package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/teacherpk/assessment/internal/bank"
)

// textStrategy covers the single-valued text types: exact match after
// case-insensitive trim.
type textStrategy struct{}

func (textStrategy) Grade(q bank.Question, resp bank.Response) (ItemResult, error) {
	res := ItemResult{QuestionID: q.ID, Max: q.Marks}
	if normalize(resp.Text) == normalize(q.Answer.Text) && resp.Text != "" {
		res.Awarded = float64(q.Marks)
	}
	return res, nil
}

// numericStrategy compares the response as a number within the key's absolute
// tolerance; a tolerance of zero means exact. Responses arrive as typed text.
type numericStrategy struct{}

func (numericStrategy) Grade(q bank.Question, resp bank.Response) (ItemResult, error) {
	res := ItemResult{QuestionID: q.ID, Max: q.Marks}
	v, ok := parseFloatLoose(resp.Text)
	if !ok {
		return res, nil
	}
	if math.Abs(v-q.Answer.Value) <= q.Answer.Tolerance {
		res.Awarded = float64(q.Marks)
	}
	return res, nil
}

// setStrategy covers MCQ_MULTIPLE and MATCHING: order-independent equality.
// With partial credit enabled, a response with no false positives earns marks
// proportional to the correct values it selected.
type setStrategy struct{ allowPartial bool }

func (s setStrategy) Grade(q bank.Question, resp bank.Response) (ItemResult, error) {
	res := ItemResult{QuestionID: q.ID, Max: q.Marks}
	correct := toSet(q.Answer.Values)
	given := toSet(resp.Values)
	if setEqual(correct, given) {
		res.Awarded = float64(q.Marks)
		return res, nil
	}
	if !s.allowPartial || len(correct) == 0 {
		return res, nil
	}
	hits := 0
	for v := range given {
		if _, ok := correct[v]; !ok {
			return res, nil // false positive voids partial credit
		}
		hits++
	}
	res.Awarded = float64(q.Marks) * float64(hits) / float64(len(correct))
	return res, nil
}

// sequenceStrategy requires ordered equality. With partial credit enabled,
// each position that matches earns a proportional share.
type sequenceStrategy struct{ allowPartial bool }

func (s sequenceStrategy) Grade(q bank.Question, resp bank.Response) (ItemResult, error) {
	res := ItemResult{QuestionID: q.ID, Max: q.Marks}
	want := q.Answer.Values
	got := resp.Values
	if len(want) == 0 {
		return res, nil
	}
	if len(got) == len(want) {
		exact := true
		for i := range want {
			if got[i] != want[i] {
				exact = false
				break
			}
		}
		if exact {
			res.Awarded = float64(q.Marks)
			return res, nil
		}
	}
	if !s.allowPartial {
		return res, nil
	}
	hits := 0
	for i := 0; i < len(want) && i < len(got); i++ {
		if got[i] == want[i] {
			hits++
		}
	}
	res.Awarded = float64(q.Marks) * float64(hits) / float64(len(want))
	return res, nil
}

// manualStrategy marks long-answer items for human grading. They contribute
// zero until a grader supplies a score.
type manualStrategy struct{}

func (manualStrategy) Grade(q bank.Question, _ bank.Response) (ItemResult, error) {
	return ItemResult{QuestionID: q.ID, Max: q.Marks, Pending: true}, nil
}

func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
