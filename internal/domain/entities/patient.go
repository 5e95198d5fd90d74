package entities

// Patient is the demographic and clinical profile referenced by
// consultations through PatientKey (a hashed identifier, never the raw
// social security number). Created once, read-only afterwards.
type Patient struct {
	PatientKey      string   `json:"patient_key"`
	FullName        string   `json:"full_name"`
	Age             string   `json:"age"`
	Sex             string   `json:"sex"`
	Occupation      string   `json:"occupation"`
	ChronicDiseases []string `json:"chronic_diseases"`
	Allergies       []string `json:"allergies"`
}
