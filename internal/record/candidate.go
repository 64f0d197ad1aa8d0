package record

// HighPotentialFlag is the candidate_target_flag value from which a candidate is
// offered the coaching call.
const HighPotentialFlag = 2

// Candidate is the identity and triage block of a CV row.
type Candidate struct {
	FirstName             string `json:"first_name,omitempty"`
	LastName              string `json:"last_name,omitempty"`
	Email                 string `json:"email,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	Address               string `json:"address,omitempty"`
	ProfileURL            string `json:"profile_url,omitempty"`
	Institution           string `json:"institution,omitempty"`
	CurrentStage          string `json:"current_stage,omitempty"`
	IntlExperienceSummary string `json:"intl_experience_summary,omitempty"`
	WorkExperienceSummary string `json:"work_experience_summary,omitempty"`
	NotablePoint          string `json:"notable_point,omitempty"`
	TargetFlag            int    `json:"target_flag"`
	TargetReason          string `json:"target_reason,omitempty"`
	HighPotential         bool   `json:"high_potential"`
}

// GetCandidate reads the candidate_ columns. ok is false when the row has none.
func GetCandidate(r Record) (Candidate, bool) {
	text := func(field string) string { return r.Text("candidate_" + field) }
	c := Candidate{
		FirstName:             text("first_name"),
		LastName:              text("last_name"),
		Email:                 text("email"),
		Phone:                 text("phone"),
		Address:               text("address"),
		ProfileURL:            text("profile_url"),
		Institution:           text("institution"),
		CurrentStage:          text("current_stage"),
		IntlExperienceSummary: text("intl_experience_summary"),
		WorkExperienceSummary: text("work_experience_summary"),
		NotablePoint:          text("notable_point"),
		TargetFlag:            r.Int("candidate_target_flag"),
		TargetReason:          text("target_reason"),
	}
	c.HighPotential = c.TargetFlag >= HighPotentialFlag
	ok := r.Has("candidate_target_flag") || c.FirstName != "" || c.LastName != "" || c.Email != ""
	return c, ok
}

// Bonus is the rewritten bullet point shown after the CV detail tables.
type Bonus struct {
	Original   string `json:"original"`
	Feedback   string `json:"feedback"`
	Suggestion string `json:"suggestion"`
}

// GetBonus reads the pass4_bullet_ columns. ok is false when all three are empty.
func GetBonus(r Record) (Bonus, bool) {
	b := Bonus{
		Original:   r.Text("pass4_bullet_original"),
		Feedback:   r.Text("pass4_bullet_feedback"),
		Suggestion: r.Text("pass4_bullet_suggestion"),
	}
	return b, b != Bonus{}
}
