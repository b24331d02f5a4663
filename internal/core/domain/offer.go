package domain

import "time"

type SkillTestStatus string

const (
	TestDoing     SkillTestStatus = "doing"
	TestSubmitted SkillTestStatus = "submitted"
)

// MaxFilesPerTest caps the upload set of a single skill test.
const MaxFilesPerTest = 10

// SkillTest is one named test inside an offer with its own upload set.
type SkillTest struct {
	Name          string          `json:"name"`
	UploadedFiles []string        `json:"uploadedFiles"`
	Status        SkillTestStatus `json:"status"`
	Rank          int             `json:"rank"`
	Explanation   string          `json:"explanation"`
}

// Offer is a candidate's assigned bundle of skill tests with a deadline.
// Identity is the candidate email, one offer per candidate.
type Offer struct {
	Email      string      `json:"email"`
	DueTime    time.Time   `json:"dueTime"`
	SkillTests []SkillTest `json:"skillTests"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (o *Offer) Test(name string) *SkillTest {
	for i := range o.SkillTests {
		if o.SkillTests[i].Name == name {
			return &o.SkillTests[i]
		}
	}
	return nil
}

func (o *Offer) AllSubmitted() bool {
	if len(o.SkillTests) == 0 {
		return false
	}
	for _, st := range o.SkillTests {
		if st.Status != TestSubmitted {
			return false
		}
	}
	return true
}

// SkillTestPatch is a partial per-test edit. KeepFiles, when non-nil, is the
// authoritative full replacement of the test's upload set.
type SkillTestPatch struct {
	Name        string    `json:"name"`
	Rank        *int      `json:"rank,omitempty"`
	Explanation *string   `json:"explanation,omitempty"`
	KeepFiles   *[]string `json:"keepFiles,omitempty"`
}
