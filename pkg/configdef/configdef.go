package configdef

import (
	"errors"
	"fmt"

	"gopkg.in/dealancer/validate.v2"
)

const (
	RecognizerOpenCV = "opencv"
	RecognizerZXing  = "zxing"
)

type Camera struct {
	Title            string `json:"title" validate:"empty=false"`
	Address          string `json:"address"`
	Disabled         bool   `json:"disabled"`
	RotationDegrees  int    `json:"rotation_degrees" validate:"one_of=0,90,180,270"`
	SamplingWindowMS int    `json:"sampling_window_ms" validate:"gte=0 & lte=60000"`
	Recognizer       string `json:"recognizer"`
	SnapshotLocation string `json:"snapshot_location"`
}

type Values struct {
	Debug      bool     `json:"debug"`
	Secret     string   `json:"secret"`
	APIAddress string   `json:"api_address"`
	Cameras    []Camera `json:"cameras"`
}

func (v Values) RunValidate() error {
	if err := validate.Validate(v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if hasDupCameraTitles(v.Cameras) {
		return fmt.Errorf(validationErrorHeader, errors.New("camera titles must be unique"))
	}
	for _, cam := range v.Cameras {
		switch cam.Recognizer {
		case "", RecognizerOpenCV, RecognizerZXing:
		default:
			return fmt.Errorf(validationErrorHeader, fmt.Errorf("camera [%s] has unknown recognizer [%s]", cam.Title, cam.Recognizer))
		}
	}
	return nil
}

func hasDupCameraTitles(cameras []Camera) bool {
	seen := map[string]struct{}{}
	for _, cam := range cameras {
		if _, ok := seen[cam.Title]; ok {
			return true
		}
		seen[cam.Title] = struct{}{}
	}
	return false
}
