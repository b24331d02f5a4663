package usecase

import "github.com/flyup/recruit-backend/internal/core/domain"

// completenessFields is the fixed checklist the completeness score is
// computed over. The candidate email is identity, not profile data, and is
// excluded.
const completenessFields = 24

// Completeness returns the percentage of the profile checklist that is
// filled. A field counts as filled iff it is present and not empty.
func Completeness(info *domain.PersonalInfo) float64 {
	filled := 0
	for _, v := range []string{
		info.Name,
		info.Nickname,
		info.Mobile,
		info.Address,
		info.DOB,
		info.BloodType,
		info.LineID,
		info.University,
		info.Qualification,
		info.Major,
		info.Reason,
		info.OtherReason,
		info.Strength,
		info.Weakness,
		info.Opportunity,
		info.Threats,
		info.RecruitmentSource,
		info.VideoClip,
		info.GradeReport,
		info.HomeRegistration,
		info.IDCard,
		info.SlidePresentation,
	} {
		if v != "" {
			filled++
		}
	}
	if info.GPA != nil {
		filled++
	}
	if !info.DueTime.IsZero() {
		filled++
	}
	return float64(filled) / float64(completenessFields) * 100
}
