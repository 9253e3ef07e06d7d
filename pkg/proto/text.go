package proto

import (
	"encoding/json"

	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"
)

// MarshalText renders content as the JSON text component the protocol
// expects for Disconnect.Reason and outbound Chat.Message bodies.
func MarshalText(content string, c color.Color) ([]byte, error) {
	return json.Marshal(&component.Text{
		Content: content,
		S:       component.Style{Color: c},
	})
}

// PlainText renders content as an uncolored JSON text component, for
// routine system messages.
func PlainText(content string) string {
	b, err := json.Marshal(&component.Text{Content: content})
	if err != nil {
		return `{"text":` + jsonString(content) + `}`
	}
	return string(b)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
