package camera

import "time"

type Settings struct {
	RotationDegrees  int
	SamplingWindow   time.Duration
	Recognizer       string
	SnapshotLocation string
}
