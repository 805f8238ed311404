package cloud

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Light is a device as the cloud API reports it.
type Light struct {
	ID         string  `json:"id"`
	UUID       string  `json:"uuid"`
	Label      string  `json:"label"`
	Connected  bool    `json:"connected"`
	Power      string  `json:"power"`
	Color      Color   `json:"color"`
	Brightness float64 `json:"brightness"`
	Group      Ref     `json:"group"`
	Location   Ref     `json:"location"`
}

// Color is the hue/saturation/kelvin triple used by the REST API.
type Color struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Kelvin     int     `json:"kelvin"`
}

// Ref names a group or location a light belongs to.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Scene is a stored scene the account can activate.
type Scene struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Result reports the per-device outcome of a state change.
type Result struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

// StateUpdate describes a state change for SetState. Zero-value fields
// are omitted from the request, leaving those aspects untouched.
type StateUpdate struct {
	Power      string   `json:"power,omitempty"`
	Color      string   `json:"color,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
	Duration   float64  `json:"duration,omitempty"`
}

// resultsEnvelope is the wrapper the API puts around state-change
// responses.
type resultsEnvelope struct {
	Results []Result `json:"results"`
}

// ListLights returns the lights matching selector. An empty selector
// means all lights on the account.
func (c *Client) ListLights(selector string) ([]Light, error) {
	body, err := c.do(http.MethodGet, "/lights/"+escapeSelector(selector), nil)
	if err != nil {
		return nil, err
	}

	var lights []Light
	if err := json.Unmarshal(body, &lights); err != nil {
		return nil, NewParseError("failed to parse lights response", err)
	}
	return lights, nil
}

// SetState applies a state change to the lights matching selector.
func (c *Client) SetState(selector string, update StateUpdate) ([]Result, error) {
	body, err := c.do(http.MethodPut, "/lights/"+escapeSelector(selector)+"/state", update)
	if err != nil {
		return nil, err
	}
	return parseResults(body)
}

// Toggle flips the power state of the lights matching selector, fading
// over duration seconds.
func (c *Client) Toggle(selector string, duration float64) ([]Result, error) {
	var payload any
	if duration > 0 {
		payload = map[string]float64{"duration": duration}
	}
	body, err := c.do(http.MethodPost, "/lights/"+escapeSelector(selector)+"/toggle", payload)
	if err != nil {
		return nil, err
	}
	return parseResults(body)
}

// ListScenes returns the scenes stored on the account.
func (c *Client) ListScenes() ([]Scene, error) {
	body, err := c.do(http.MethodGet, "/scenes", nil)
	if err != nil {
		return nil, err
	}

	var scenes []Scene
	if err := json.Unmarshal(body, &scenes); err != nil {
		return nil, NewParseError("failed to parse scenes response", err)
	}
	return scenes, nil
}

// ActivateScene applies a stored scene, fading over duration seconds.
func (c *Client) ActivateScene(uuid string, duration float64) ([]Result, error) {
	var payload any
	if duration > 0 {
		payload = map[string]float64{"duration": duration}
	}
	body, err := c.do(http.MethodPut, "/scenes/scene_id:"+url.PathEscape(uuid)+"/activate", payload)
	if err != nil {
		return nil, err
	}
	return parseResults(body)
}

func parseResults(body []byte) ([]Result, error) {
	var envelope resultsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, NewParseError("failed to parse results response", err)
	}
	return envelope.Results, nil
}

// escapeSelector URL-escapes a selector, defaulting to all lights.
func escapeSelector(selector string) string {
	if selector == "" {
		selector = "all"
	}
	return url.PathEscape(selector)
}
