package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

type PersonalInfoRepository struct {
	db *sql.DB
}

func NewPersonalInfoRepository(db *sql.DB) *PersonalInfoRepository {
	return &PersonalInfoRepository{db: db}
}

const personalInfoColumns = `
email, due_time, name, nickname, mobile, address, dob, blood_type, line_id,
university, qualification, major, gpa, reason, other_reason, strength,
weakness, opportunity, threats, recruitment_source, video_clip, grade_report,
home_registration, id_card, slide_presentation, created_at, updated_at`

func (r *PersonalInfoRepository) Create(ctx context.Context, email string, dueTime time.Time) (*domain.PersonalInfo, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO personal_infos (email, due_time, created_at, updated_at) VALUES ($1,$2,$3,$3)
`, email, dueTime, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.WrapError(domain.ErrConflict, "insert personal info", errors.New(email))
		}
		return nil, fmt.Errorf("insert personal info: %w", err)
	}
	return r.GetByEmail(ctx, email)
}

func (r *PersonalInfoRepository) GetByEmail(ctx context.Context, email string) (*domain.PersonalInfo, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+personalInfoColumns+`
FROM personal_infos WHERE email = $1
`, email)

	var info domain.PersonalInfo
	var gpa sql.NullFloat64
	err := row.Scan(
		&info.Email, &info.DueTime, &info.Name, &info.Nickname, &info.Mobile, &info.Address,
		&info.DOB, &info.BloodType, &info.LineID, &info.University, &info.Qualification,
		&info.Major, &gpa, &info.Reason, &info.OtherReason, &info.Strength, &info.Weakness,
		&info.Opportunity, &info.Threats, &info.RecruitmentSource, &info.VideoClip,
		&info.GradeReport, &info.HomeRegistration, &info.IDCard, &info.SlidePresentation,
		&info.CreatedAt, &info.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get personal info", email)
		}
		return nil, fmt.Errorf("scan personal info: %w", err)
	}
	if gpa.Valid {
		info.GPA = &gpa.Float64
	}
	return &info, nil
}

func (r *PersonalInfoRepository) Update(ctx context.Context, info *domain.PersonalInfo) error {
	var gpa sql.NullFloat64
	if info.GPA != nil {
		gpa = sql.NullFloat64{Float64: *info.GPA, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE personal_infos SET
	due_time = $2, name = $3, nickname = $4, mobile = $5, address = $6, dob = $7,
	blood_type = $8, line_id = $9, university = $10, qualification = $11, major = $12,
	gpa = $13, reason = $14, other_reason = $15, strength = $16, weakness = $17,
	opportunity = $18, threats = $19, recruitment_source = $20, video_clip = $21,
	grade_report = $22, home_registration = $23, id_card = $24, slide_presentation = $25,
	updated_at = $26
WHERE email = $1
`,
		info.Email, info.DueTime, info.Name, info.Nickname, info.Mobile, info.Address,
		info.DOB, info.BloodType, info.LineID, info.University, info.Qualification,
		info.Major, gpa, info.Reason, info.OtherReason, info.Strength, info.Weakness,
		info.Opportunity, info.Threats, info.RecruitmentSource, info.VideoClip,
		info.GradeReport, info.HomeRegistration, info.IDCard, info.SlidePresentation,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update personal info: %w", err)
	}
	return requireRow(res, "update personal info", info.Email)
}
