package scanner

import (
	"context"

	"github.com/tauraamui/scandaemon/pkg/camera"
	"github.com/tauraamui/scandaemon/pkg/scan"
	"github.com/tauraamui/scandaemon/pkg/video/videobackend"
)

func OverloadConnectToCamera(overload func(context.Context, string, string, camera.Settings, videobackend.Backend) (camera.Connection, error)) func() {
	connectToCameraRef := connectToCamera
	connectToCamera = overload
	return func() { connectToCamera = connectToCameraRef }
}

func OverloadResolveRecognizer(overload func(string) scan.Recognizer) func() {
	resolveRecognizerRef := resolveRecognizer
	resolveRecognizer = overload
	return func() { resolveRecognizer = resolveRecognizerRef }
}
