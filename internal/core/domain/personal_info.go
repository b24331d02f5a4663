package domain

import "time"

// Document slot fields on PersonalInfo. Each holds at most one stored object
// reference; replacing a slot must delete the previous object first.
const (
	FieldVideoClip         = "videoClip"
	FieldGradeReport       = "gradeReport"
	FieldHomeRegistration  = "homeRegistration"
	FieldIDCard            = "idCard"
	FieldSlidePresentation = "slidePresentation"
)

var DocumentFields = []string{
	FieldVideoClip,
	FieldGradeReport,
	FieldHomeRegistration,
	FieldIDCard,
	FieldSlidePresentation,
}

func IsDocumentField(name string) bool {
	for _, f := range DocumentFields {
		if f == name {
			return true
		}
	}
	return false
}

// PersonalInfo is the candidate profile, 1:1 with the candidate by email.
type PersonalInfo struct {
	Email   string    `json:"email"`
	DueTime time.Time `json:"dueTime"`

	Name              string   `json:"name"`
	Nickname          string   `json:"nickname"`
	Mobile            string   `json:"mobile"`
	Address           string   `json:"address"`
	DOB               string   `json:"dob"`
	BloodType         string   `json:"bloodType"`
	LineID            string   `json:"lineId"`
	University        string   `json:"university"`
	Qualification     string   `json:"qualification"`
	Major             string   `json:"major"`
	GPA               *float64 `json:"gpa"`
	Reason            string   `json:"reason"`
	OtherReason       string   `json:"otherReason"`
	Strength          string   `json:"strength"`
	Weakness          string   `json:"weakness"`
	Opportunity       string   `json:"opportunity"`
	Threats           string   `json:"threats"`
	RecruitmentSource string   `json:"recruitmentSource"`

	VideoClip         string `json:"videoClip"`
	GradeReport       string `json:"gradeReport"`
	HomeRegistration  string `json:"homeRegistration"`
	IDCard            string `json:"idCard"`
	SlidePresentation string `json:"slidePresentation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfilePatch is a partial scalar update; nil fields are left untouched.
type ProfilePatch struct {
	DueTime           *time.Time `json:"dueTime,omitempty"`
	Name              *string    `json:"name,omitempty"`
	Nickname          *string    `json:"nickname,omitempty"`
	Mobile            *string    `json:"mobile,omitempty"`
	Address           *string    `json:"address,omitempty"`
	DOB               *string    `json:"dob,omitempty"`
	BloodType         *string    `json:"bloodType,omitempty"`
	LineID            *string    `json:"lineId,omitempty"`
	University        *string    `json:"university,omitempty"`
	Qualification     *string    `json:"qualification,omitempty"`
	Major             *string    `json:"major,omitempty"`
	GPA               *float64   `json:"gpa,omitempty"`
	Reason            *string    `json:"reason,omitempty"`
	OtherReason       *string    `json:"otherReason,omitempty"`
	Strength          *string    `json:"strength,omitempty"`
	Weakness          *string    `json:"weakness,omitempty"`
	Opportunity       *string    `json:"opportunity,omitempty"`
	Threats           *string    `json:"threats,omitempty"`
	RecruitmentSource *string    `json:"recruitmentSource,omitempty"`
}

// Apply copies the non-nil patch fields onto the profile.
func (p ProfilePatch) Apply(info *PersonalInfo) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if p.DueTime != nil {
		info.DueTime = *p.DueTime
	}
	setStr(&info.Name, p.Name)
	setStr(&info.Nickname, p.Nickname)
	setStr(&info.Mobile, p.Mobile)
	setStr(&info.Address, p.Address)
	setStr(&info.DOB, p.DOB)
	setStr(&info.BloodType, p.BloodType)
	setStr(&info.LineID, p.LineID)
	setStr(&info.University, p.University)
	setStr(&info.Qualification, p.Qualification)
	setStr(&info.Major, p.Major)
	if p.GPA != nil {
		gpa := *p.GPA
		info.GPA = &gpa
	}
	setStr(&info.Reason, p.Reason)
	setStr(&info.OtherReason, p.OtherReason)
	setStr(&info.Strength, p.Strength)
	setStr(&info.Weakness, p.Weakness)
	setStr(&info.Opportunity, p.Opportunity)
	setStr(&info.Threats, p.Threats)
	setStr(&info.RecruitmentSource, p.RecruitmentSource)
}

// Document returns the stored reference for a named slot.
func (p *PersonalInfo) Document(field string) string {
	switch field {
	case FieldVideoClip:
		return p.VideoClip
	case FieldGradeReport:
		return p.GradeReport
	case FieldHomeRegistration:
		return p.HomeRegistration
	case FieldIDCard:
		return p.IDCard
	case FieldSlidePresentation:
		return p.SlidePresentation
	}
	return ""
}

func (p *PersonalInfo) SetDocument(field, ref string) {
	switch field {
	case FieldVideoClip:
		p.VideoClip = ref
	case FieldGradeReport:
		p.GradeReport = ref
	case FieldHomeRegistration:
		p.HomeRegistration = ref
	case FieldIDCard:
		p.IDCard = ref
	case FieldSlidePresentation:
		p.SlidePresentation = ref
	}
}
