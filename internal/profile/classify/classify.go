// Package classify decides, per profile section, how disruptive a change is
// and which downstream systems must hear about it.
//
// This is pure domain logic - no I/O, no side effects. The table is static:
// classification rules change by deploy, not at runtime, so reviewers can
// read the entire fanout policy in one place.
package classify

import (
	"praxis/internal/profile/models"
	dErrors "praxis/pkg/domain-errors"
)

// table maps each supported section to its impact and affected systems.
//
// Rationale per row:
//   - credentials: licensing is a trust signal quoted in search results and
//     shown on booking pages
//   - serviceOffering: what a practitioner sells; search facets, booking
//     catalogs and partner feeds all key on it
//   - availability: booking slots and the cached calendar view
//   - status: going inactive must vanish from every surface at once
//   - specialties: search facets and partner directories
//   - languages: search filter plus the cached profile card
//   - education: search-visible prose, nothing transactional
//   - contact: cached profile card and partner directory entries
//   - bio, profilePhoto: cosmetic surfaces only
var table = map[models.Section]models.Classification{
	models.SectionCredentials: {
		Impact:  models.ImpactCritical,
		Systems: []models.System{models.SystemSearch, models.SystemBooking},
	},
	models.SectionServiceOffering: {
		Impact:  models.ImpactCritical,
		Systems: []models.System{models.SystemSearch, models.SystemBooking, models.SystemIntegrations},
	},
	models.SectionAvailability: {
		Impact:  models.ImpactCritical,
		Systems: []models.System{models.SystemBooking, models.SystemCache},
	},
	models.SectionStatus: {
		Impact:  models.ImpactCritical,
		Systems: []models.System{models.SystemSearch, models.SystemBooking, models.SystemCache, models.SystemIntegrations},
	},
	models.SectionSpecialties: {
		Impact:  models.ImpactHigh,
		Systems: []models.System{models.SystemSearch, models.SystemIntegrations},
	},
	models.SectionLanguages: {
		Impact:  models.ImpactMedium,
		Systems: []models.System{models.SystemSearch, models.SystemCache},
	},
	models.SectionEducation: {
		Impact:  models.ImpactMedium,
		Systems: []models.System{models.SystemSearch},
	},
	models.SectionContact: {
		Impact:  models.ImpactMedium,
		Systems: []models.System{models.SystemCache, models.SystemIntegrations},
	},
	models.SectionBio: {
		Impact:  models.ImpactLow,
		Systems: []models.System{models.SystemSearch},
	},
	models.SectionProfilePhoto: {
		Impact:  models.ImpactLow,
		Systems: []models.System{models.SystemCache},
	},
}

// Classify returns the impact and affected systems for a section change.
// Unknown sections are rejected with a validation error; callers rely on
// this as the gate that keeps unclassifiable changes out of the pipeline.
func Classify(section models.Section) (models.Classification, error) {
	c, ok := table[section]
	if !ok {
		return models.Classification{}, dErrors.New(dErrors.CodeValidation, "unknown profile section: "+section.String())
	}
	// Copy the systems slice so callers can't mutate the table.
	return models.Classification{
		Impact:  c.Impact,
		Systems: append([]models.System(nil), c.Systems...),
	}, nil
}
