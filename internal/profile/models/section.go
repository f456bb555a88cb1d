package models

import (
	dErrors "praxis/pkg/domain-errors"
)

// Section identifies one editable region of a practitioner profile.
//
// Invariant: the value must be one of the supported sections. Construct via
// ParseSection at trust boundaries; the classifier rejects anything outside
// this set before any state is touched, so an unknown section can never
// produce a partial write.
type Section string

// Supported profile sections.
const (
	SectionCredentials     Section = "credentials"
	SectionServiceOffering Section = "serviceOffering"
	SectionAvailability    Section = "availability"
	SectionStatus          Section = "status"
	SectionSpecialties     Section = "specialties"
	SectionLanguages       Section = "languages"
	SectionEducation       Section = "education"
	SectionContact         Section = "contact"
	SectionBio             Section = "bio"
	SectionProfilePhoto    Section = "profilePhoto"
)

// AllSections returns every supported section. The classifier table must
// cover exactly this set.
func AllSections() []Section {
	return []Section{
		SectionCredentials,
		SectionServiceOffering,
		SectionAvailability,
		SectionStatus,
		SectionSpecialties,
		SectionLanguages,
		SectionEducation,
		SectionContact,
		SectionBio,
		SectionProfilePhoto,
	}
}

// ParseSection validates and returns a Section.
func ParseSection(raw string) (Section, error) {
	s := Section(raw)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown profile section: "+raw)
	}
	return s, nil
}

// IsValid checks if the section is one of the supported enum values.
func (s Section) IsValid() bool {
	switch s {
	case SectionCredentials, SectionServiceOffering, SectionAvailability,
		SectionStatus, SectionSpecialties, SectionLanguages,
		SectionEducation, SectionContact, SectionBio, SectionProfilePhoto:
		return true
	}
	return false
}

// String returns the string representation.
func (s Section) String() string {
	return string(s)
}
