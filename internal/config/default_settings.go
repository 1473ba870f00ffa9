package config

import (
	"os"
	"path/filepath"

	"github.com/tauraamui/scandaemon/pkg/configdef"
)

type defaultSettingKey uint

const (
	CAMERAS          defaultSettingKey = 0x0
	SAMPLINGWINDOWMS defaultSettingKey = 0x1
	RECOGNIZER       defaultSettingKey = 0x2
	APIADDRESS       defaultSettingKey = 0x3
	SNAPSHOTLOCATION defaultSettingKey = 0x4
)

var defaultSettings = map[defaultSettingKey]interface{}{
	CAMERAS:          []configdef.Camera{},
	SAMPLINGWINDOWMS: 500,
	RECOGNIZER:       configdef.RecognizerOpenCV,
	APIADDRESS:       ":3121",
	SNAPSHOTLOCATION: filepath.Join(os.TempDir(), appName, "snapshots"),
}
