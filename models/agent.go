package models

// AgentRecord is the normalized shape of one directory entry. Every field is
// optional: summary records from a listing carry only a few of them, detail
// records from a profile page carry most.
type AgentRecord struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	License string `json:"license,omitempty"`

	Location        string `json:"location,omitempty"`
	Bio             string `json:"bio,omitempty"`
	YearsExperience string `json:"years_experience,omitempty"`
	Office          string `json:"office,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`

	Specialties []string `json:"specialties,omitempty"`
	Languages   []string `json:"languages,omitempty"`

	ProfileURL string `json:"profile_url,omitempty"`
	Website    string `json:"website,omitempty"`
	Facebook   string `json:"facebook,omitempty"`
	Instagram  string `json:"instagram,omitempty"`
}

// IsEmpty reports whether the record carries no data besides its profile URL.
// Profile pages that render without any agent fields produce such records.
func (r AgentRecord) IsEmpty() bool {
	return r.Name == "" && r.Email == "" && r.Phone == "" && r.License == "" &&
		r.Location == "" && r.Bio == "" && r.YearsExperience == "" &&
		r.Office == "" && r.ImageURL == "" &&
		len(r.Specialties) == 0 && len(r.Languages) == 0 &&
		r.Website == "" && r.Facebook == "" && r.Instagram == ""
}

// PartialIdentity is the caller-supplied query for the verify endpoints.
// Absent and empty fields are treated the same way.
type PartialIdentity struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	License string `json:"license,omitempty"`
}

// IsZero reports whether no field of the identity was supplied.
func (p PartialIdentity) IsZero() bool {
	return p.Name == "" && p.Email == "" && p.Phone == "" && p.License == ""
}
