package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Consultation types an appointment can request.
const (
	ConsultationVideo    = "video"
	ConsultationPhone    = "phone"
	ConsultationInPerson = "in_person"
)

// Consultation modes a doctor can offer.
const (
	ModeAll           = "all"
	ModeOnlineOnly    = "online_only"
	ModeInPersonOnly  = "in_person_only"
	ModeVideoOnly     = "video_only"
	ModePhoneOnly     = "phone_only"
	ModeInPersonVideo = "in_person_video"
	ModeInPersonPhone = "in_person_phone"
)

// typeSet is the set of consultation types a mode accepts.
type typeSet uint8

const (
	acceptsVideo typeSet = 1 << iota
	acceptsPhone
	acceptsInPerson
)

var typeBits = map[string]typeSet{
	ConsultationVideo:    acceptsVideo,
	ConsultationPhone:    acceptsPhone,
	ConsultationInPerson: acceptsInPerson,
}

type modeInfo struct {
	label   string
	accepts typeSet
}

var modes = map[string]modeInfo{
	ModeAll:           {"All Modes", acceptsVideo | acceptsPhone | acceptsInPerson},
	ModeOnlineOnly:    {"Online Only (Video/Phone)", acceptsVideo | acceptsPhone},
	ModeInPersonOnly:  {"In-Person Only", acceptsInPerson},
	ModeVideoOnly:     {"Video Call Only", acceptsVideo},
	ModePhoneOnly:     {"Phone Call Only", acceptsPhone},
	ModeInPersonVideo: {"In-Person & Video", acceptsInPerson | acceptsVideo},
	ModeInPersonPhone: {"In-Person & Phone", acceptsInPerson | acceptsPhone},
}

// ValidConsultationType reports whether t is video, phone or in_person.
func ValidConsultationType(t string) bool {
	_, ok := typeBits[t]
	return ok
}

// ValidConsultationMode reports whether mode is one of the Mode* values.
func ValidConsultationMode(mode string) bool {
	_, ok := modes[mode]
	return ok
}

// SupportsConsultationType reports whether a doctor offering mode accepts
// consultations of type t. Unknown modes or types accept nothing.
func SupportsConsultationType(mode, t string) bool {
	bit, ok := typeBits[t]
	if !ok {
		return false
	}
	return modes[mode].accepts&bit != 0
}

// ModeLabel returns the human readable name of mode, or mode itself when unknown.
func ModeLabel(mode string) string {
	if info, ok := modes[mode]; ok {
		return info.label
	}
	return mode
}

// Specialization maps to the specialization table.
type Specialization struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// Doctor maps to the doctor table. IsActive is the soft-delete flag and is
// never rendered.
type Doctor struct {
	ID                 int64     `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	SpecializationID   int64     `db:"specialization_id" json:"specialization"`
	SpecializationName string    `db:"specialization_name" json:"specialization_name"`
	YearsExperience    int       `db:"years_experience" json:"years_experience"`
	Bio                string    `db:"bio" json:"bio"`
	ConsultationModes  string    `db:"consultation_modes" json:"consultation_modes"`
	IsAvailable        bool      `db:"is_available" json:"is_available"`
	IsActive           bool      `db:"is_active" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"-"`
}

// SupportsConsultationType reports whether the doctor accepts consultations of type t.
func (d *Doctor) SupportsConsultationType(t string) bool {
	return SupportsConsultationType(d.ConsultationModes, t)
}

// DoctorInput is the writable part of a doctor. Nil fields were absent from
// the request; a partial update leaves them unchanged.
type DoctorInput struct {
	Name              *string `json:"name"`
	Specialization    *Ref    `json:"specialization"`
	YearsExperience   *int    `json:"years_experience"`
	Bio               *string `json:"bio"`
	ConsultationModes *string `json:"consultation_modes"`
	IsAvailable       *bool   `json:"is_available"`
}

// Ref is a row id that decodes from a JSON number or a numeric string.
type Ref int64

func (r *Ref) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*r = Ref(v)
	return nil
}

// DoctorFilter narrows a doctor listing. Zero values disable a filter.
type DoctorFilter struct {
	SpecializationID int64
	AvailableOnly    bool
	ConsultationMode string
}
