package models

import (
	"errors"
	"strconv"
)

// Validation errors surfaced verbatim to API clients.
var (
	ErrInvalidGender = errors.New("Invalid gender. Choose 'male' or 'female'.")
	ErrInvalidPitch  = errors.New("Invalid pitch. Choose an integer between 1 and 5.")
	ErrInvalidSpeed  = errors.New("Invalid speed. Choose an integer between 1 and 5.")
)

// Gender values accepted by the API.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Pitch and speed are integers on a 1-5 scale.
const (
	VoiceScaleMin = 1
	VoiceScaleMax = 5
)

// VoiceParams carries the gender/pitch/speed form fields. They are validated
// and passed through to the invoker, but the engine derives the voice from
// the reference audio and does not currently apply them — acknowledged
// upstream as unimplemented, not silently dropped here.
type VoiceParams struct {
	Gender string
	Pitch  int
	Speed  int
}

// ParseVoiceParams validates the raw form values. When required is false
// (the clone path), empty fields are skipped and left at their zero value;
// present fields are still validated.
func ParseVoiceParams(gender, pitch, speed string, required bool) (VoiceParams, error) {
	var p VoiceParams

	if gender != "" || required {
		if gender != GenderMale && gender != GenderFemale {
			return p, ErrInvalidGender
		}
		p.Gender = gender
	}

	if pitch != "" || required {
		v, err := strconv.Atoi(pitch)
		if err != nil || v < VoiceScaleMin || v > VoiceScaleMax {
			return p, ErrInvalidPitch
		}
		p.Pitch = v
	}

	if speed != "" || required {
		v, err := strconv.Atoi(speed)
		if err != nil || v < VoiceScaleMin || v > VoiceScaleMax {
			return p, ErrInvalidSpeed
		}
		p.Speed = v
	}

	return p, nil
}
