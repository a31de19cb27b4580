package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResultHeaders is the column layout of the results sheet / final.csv.
var ResultHeaders = []string{
	"timestamp", "subject_id", "policy",
	"dob", "sex", "studies", "grad_year", "uni", "field", "city", "gpa",
	"task_text", "words", "edit_count",
	"ai_generated_pct", "ai_paraphrased_pct",
	"noticed_policy", "used_ai_button", "used_external_ai",
	"personality_q1", "personality_q2", "personality_q3",
	"ai_overconfidence_1", "ai_overconfidence_2",
	"ai_self_motivation_1", "ai_self_motivation_2",
	"ai_social_acceptance_1", "ai_social_acceptance_2",
}

// Result is one participant's final session summary, written exactly once
// at finalize time.
type Result struct {
	Timestamp string
	SubjectID string
	Policy    string

	DOB      string
	Sex      string
	Studies  string
	GradYear string
	Uni      string
	Field    string
	City     string
	GPA      string

	TaskText  string
	Words     int
	EditCount int

	AIGeneratedPct   float64
	AIParaphrasedPct float64

	NoticedPolicy  string
	UsedAIButton   string
	UsedExternalAI string

	PersonalityQ1 string
	PersonalityQ2 string
	PersonalityQ3 string

	// Attitude scale, in ResultHeaders order.
	Overconfidence1   string
	Overconfidence2   string
	SelfMotivation1   string
	SelfMotivation2   string
	SocialAcceptance1 string
	SocialAcceptance2 string
}

// NewResult flattens a finalize request into a Result row. The word count
// falls back to counting whitespace-separated tokens in the task text when
// the client did not report one; the edit count is derived from the edit
// trace length.
func NewResult(req *FinalizeRequest, now time.Time) Result {
	words := req.Results.Words
	if words == 0 && req.Results.TaskText != "" {
		words = len(strings.Fields(req.Results.TaskText))
	}

	return Result{
		Timestamp: now.UTC().Format(time.RFC3339),
		SubjectID: req.SubjectID,
		Policy:    req.Demographics.Policy,

		DOB:      req.Demographics.DOB,
		Sex:      req.Demographics.Sex,
		Studies:  req.Demographics.Studies,
		GradYear: req.Demographics.GradYear.String(),
		Uni:      req.Demographics.Uni,
		Field:    req.Demographics.Field,
		City:     req.Demographics.City,
		GPA:      req.Demographics.GPA.String(),

		TaskText:  req.Results.TaskText,
		Words:     words,
		EditCount: len(req.Results.Edits),

		AIGeneratedPct:   req.Results.AIUsage.GeneratedPct,
		AIParaphrasedPct: req.Results.AIUsage.ParaphrasedPct,

		NoticedPolicy:  req.Results.Control.NoticedPolicy.String(),
		UsedAIButton:   req.Results.Control.UsedAIButton.String(),
		UsedExternalAI: req.Results.Control.UsedExternalAI.String(),

		PersonalityQ1: req.Results.Personality.Q1.String(),
		PersonalityQ2: req.Results.Personality.Q2.String(),
		PersonalityQ3: req.Results.Personality.Q3.String(),

		Overconfidence1:   req.Results.AIMotivation.Overconfidence1.String(),
		Overconfidence2:   req.Results.AIMotivation.Overconfidence2.String(),
		SelfMotivation1:   req.Results.AIMotivation.SelfMotivation1.String(),
		SelfMotivation2:   req.Results.AIMotivation.SelfMotivation2.String(),
		SocialAcceptance1: req.Results.AIMotivation.SocialAcceptance1.String(),
		SocialAcceptance2: req.Results.AIMotivation.SocialAcceptance2.String(),
	}
}

// AttitudeAnswers returns the attitude-scale answers in header order. The
// Postgres backend stores them as one array column since the scale length
// varied across study revisions.
func (r Result) AttitudeAnswers() []string {
	return []string{
		r.Overconfidence1, r.Overconfidence2,
		r.SelfMotivation1, r.SelfMotivation2,
		r.SocialAcceptance1, r.SocialAcceptance2,
	}
}

// Row flattens the result into the ResultHeaders column order.
func (r Result) Row() []any {
	return []any{
		r.Timestamp, r.SubjectID, r.Policy,
		r.DOB, r.Sex, r.Studies, r.GradYear, r.Uni, r.Field, r.City, r.GPA,
		r.TaskText, r.Words, r.EditCount,
		r.AIGeneratedPct, r.AIParaphrasedPct,
		r.NoticedPolicy, r.UsedAIButton, r.UsedExternalAI,
		r.PersonalityQ1, r.PersonalityQ2, r.PersonalityQ3,
		r.Overconfidence1, r.Overconfidence2,
		r.SelfMotivation1, r.SelfMotivation2,
		r.SocialAcceptance1, r.SocialAcceptance2,
	}
}

// StringRow is Row rendered as strings, for the CSV backend.
func (r Result) StringRow() []string {
	row := r.Row()
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = anyToString(v)
	}
	return out
}

func anyToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
