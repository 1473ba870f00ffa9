package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tauraamui/scandaemon/pkg/configdef"
	"github.com/tauraamui/scandaemon/pkg/log"
	"github.com/tauraamui/xerror"
)

const (
	vendorName     = "tacusci"
	appName        = "scandaemon"
	configFileName = "config.json"
	configPathEnv  = "SCAN_DAEMON_CONFIG"
)

var fs afero.Fs = afero.NewOsFs()

func load() (configdef.Values, error) {
	var values configdef.Values

	configPath, err := resolveConfigPath()
	if err != nil {
		return configdef.Values{}, err
	}

	log.Info("Resolved config file location: %s", configPath)
	file, err := readConfigFile(configPath)
	if err != nil {
		return configdef.Values{}, err
	}

	if err := unmarshal(file, &values); err != nil {
		return configdef.Values{}, err
	}

	if err = values.RunValidate(); err != nil {
		return configdef.Values{}, err
	}

	loadDefaultCameraSettings(values.Cameras)
	if len(values.APIAddress) == 0 {
		values.APIAddress = defaultSettings[APIADDRESS].(string)
	}

	return values, nil
}

func loadDefaultCameraSettings(cameras []configdef.Camera) {
	for i := range cameras {
		camera := &cameras[i]
		if camera.SamplingWindowMS == 0 {
			camera.SamplingWindowMS = defaultSettings[SAMPLINGWINDOWMS].(int)
		}
		if len(camera.Recognizer) == 0 {
			camera.Recognizer = defaultSettings[RECOGNIZER].(string)
		}
		if len(camera.SnapshotLocation) == 0 {
			camera.SnapshotLocation = filepath.Join(defaultSettings[SNAPSHOTLOCATION].(string), camera.Title)
		}
	}
}

var readConfigFile = func(path string) ([]byte, error) {
	return afero.ReadFile(fs, path)
}

func unmarshal(content []byte, values *configdef.Values) error {
	err := json.Unmarshal(content, values)
	if err != nil {
		return errors.Errorf("parsing configuration error: %v", err)
	}
	return nil
}

func resolveConfigPath() (string, error) {
	configPath := os.Getenv(configPathEnv)
	if len(configPath) > 0 {
		return configPath, nil
	}

	configParentDir, err := userConfigDir()
	if err != nil {
		return "", xerror.Errorf("unable to resolve %s location: %w", configFileName, err)
	}

	return filepath.Join(
		configParentDir,
		vendorName,
		appName,
		configFileName), nil
}

var userConfigDir = func() (string, error) {
	return os.UserConfigDir()
}
