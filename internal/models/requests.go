package models

import (
	"strconv"

	json "github.com/goccy/go-json"
)

// Flex is a string that also accepts JSON numbers, booleans and null, since
// the experiment frontend submits likert answers sometimes as numbers and
// sometimes as strings depending on the question widget.
type Flex string

func (f *Flex) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}
	if string(data) == "true" || string(data) == "false" {
		*f = Flex(data)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = Flex(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

func (f Flex) String() string { return string(f) }

// LogRequest is one inbound interaction event.
type LogRequest struct {
	SubjectID string         `json:"subject_id" binding:"required"`
	Policy    string         `json:"policy" binding:"required"`
	Event     string         `json:"event" binding:"required"`
	TS        string         `json:"ts"`
	Payload   map[string]any `json:"payload"`
}

// AssistRequest asks for writing suggestions on the current draft.
type AssistRequest struct {
	SubjectID string `json:"subject_id"`
	Text      string `json:"text" binding:"required"`
	Selection string `json:"selection"`
	Policy    string `json:"policy"`
}

// Demographics is the pre-task questionnaire block of a finalize request.
type Demographics struct {
	Policy   string `json:"policy"`
	DOB      string `json:"dob"`
	Sex      string `json:"sex"`
	Studies  string `json:"studies"`
	GradYear Flex   `json:"grad_year"`
	Uni      string `json:"uni"`
	Field    string `json:"field"`
	City     string `json:"city"`
	GPA      Flex   `json:"gpa"`
}

// AIUsage is the participant's self-reported share of AI-produced text.
type AIUsage struct {
	GeneratedPct   float64 `json:"generated_pct"`
	ParaphrasedPct float64 `json:"paraphrased_pct"`
}

// ControlAnswers is the debrief manipulation-check block.
type ControlAnswers struct {
	NoticedPolicy  Flex `json:"noticed_policy"`
	UsedAIButton   Flex `json:"used_ai_button"`
	UsedExternalAI Flex `json:"used_external_ai"`
}

// PersonalityAnswers is the short personality scale.
type PersonalityAnswers struct {
	Q1 Flex `json:"q1"`
	Q2 Flex `json:"q2"`
	Q3 Flex `json:"q3"`
}

// MotivationAnswers is the AI-usage attitude scale, two items per subscale.
type MotivationAnswers struct {
	Overconfidence1   Flex `json:"overconfidence_1"`
	Overconfidence2   Flex `json:"overconfidence_2"`
	SelfMotivation1   Flex `json:"self_motivation_1"`
	SelfMotivation2   Flex `json:"self_motivation_2"`
	SocialAcceptance1 Flex `json:"social_acceptance_1"`
	SocialAcceptance2 Flex `json:"social_acceptance_2"`
}

// SessionResults is the task-output block of a finalize request.
type SessionResults struct {
	TaskText     string             `json:"task_text"`
	Words        int                `json:"words"`
	Edits        []any              `json:"edits"`
	AIUsage      AIUsage            `json:"ai_usage"`
	Control      ControlAnswers     `json:"control"`
	Personality  PersonalityAnswers `json:"personality"`
	AIMotivation MotivationAnswers  `json:"ai_motivation"`
}

// FinalizeRequest is a participant's one-shot end-of-session submission.
type FinalizeRequest struct {
	SubjectID    string         `json:"subject_id" binding:"required"`
	Demographics Demographics   `json:"demographics"`
	Results      SessionResults `json:"results"`
}
