// Package qrcode decodes the JSON payload printed on task QR codes.
package qrcode

import (
	"encoding/json"
	"strings"

	"github.com/rezmoss/simpletracker/internal/model"
)

// Parse decodes {"taskId": ..., "name": ..., "altCode": ...}. Every key is
// optional but at least one must be present.
func Parse(payload string) (model.TrackParams, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return model.TrackParams{}, model.Invalid("qr code payload is not a JSON object: %v", err)
	}
	if raw == nil {
		return model.TrackParams{}, model.Invalid("qr code payload is not a JSON object")
	}

	p := model.TrackParams{
		TaskID:  str(raw["taskId"]),
		Name:    str(raw["name"]),
		AltCode: str(raw["altCode"]),
	}
	if p.IsEmpty() {
		return model.TrackParams{}, model.Invalid("at least one of taskId, name or altCode must be present")
	}
	return p, nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// Payload encodes the fields of task that Parse reads back. The alt code is
// preferred over the id so printed codes survive a backend change.
func Payload(task model.Task) (string, error) {
	p := model.TrackParams{AltCode: task.AltCode, Name: task.Name}
	if p.AltCode == "" {
		p.TaskID = task.ID
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
