package listing

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tscswap/backend/core"
)

var (
	desiredTag  = "desired"
	desiredText = "pick at least one county you would move to"

	currentDesiredTag  = "notcurrent"
	currentDesiredText = "you cannot swap into the county you are already in"
)

// Listing is a FastSwap record: a swap interest that is not tied to a full account.
type Listing struct {
	ID              string    `json:"id"`
	Names           string    `json:"names"`
	Phone           string    `json:"phone"`
	LevelID         int       `json:"level_id"`
	SchoolID        int       `json:"school_id,omitempty"`
	CurrentCountyID int       `json:"current_county_id"`
	MostPreferredID int       `json:"most_preferred_id,omitempty"`
	AcceptableIDs   []int     `json:"acceptable_county_ids"`
	SubjectIDs      []int     `json:"subject_ids"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewListing contains information needed to create a new Listing.
type NewListing struct {
	Names           string `json:"names" validate:"required,notblank,max=255"`
	Phone           string `json:"phone" validate:"required,kephone"`
	LevelID         int    `json:"level_id" validate:"required"`
	SchoolID        int    `json:"school_id" validate:"omitempty,gt=0"`
	CurrentCountyID int    `json:"current_county_id" validate:"required"`
	MostPreferredID int    `json:"most_preferred_id" validate:"omitempty,gt=0"`
	AcceptableIDs   []int  `json:"acceptable_county_ids" validate:"omitempty,dive,gt=0"`
	SubjectIDs      []int  `json:"subject_ids" validate:"omitempty,dive,gt=0"`
}

func (nl *NewListing) Validate(validate *validator.Validate, svc *Service) error {
	nl.Names = core.CleanString(nl.Names)
	nl.Phone = NormalizePhone(nl.Phone)

	if err := validate.Struct(nl); err != nil {
		return err
	}
	return svc.CheckPhoneUniqueness(nl.Phone)
}

// RegisterValidators adds the listing specific rules to validate.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newListingStructValidation, NewListing{})
	core.RegisterCustomTranslation(validate, translator, desiredTag, desiredText)
	core.RegisterCustomTranslation(validate, translator, currentDesiredTag, currentDesiredText)
}

func newListingStructValidation(sl validator.StructLevel) {
	nl := sl.Current().Interface().(NewListing)

	if nl.MostPreferredID == 0 && len(nl.AcceptableIDs) == 0 {
		sl.ReportError(nl.AcceptableIDs, "acceptable_county_ids", "AcceptableIDs", desiredTag, "")
	}
	if nl.CurrentCountyID != 0 && nl.MostPreferredID == nl.CurrentCountyID {
		sl.ReportError(nl.MostPreferredID, "most_preferred_id", "MostPreferredID", currentDesiredTag, "")
	}
}

// NormalizePhone drops spaces & dashes so that equal numbers compare equal.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
}
