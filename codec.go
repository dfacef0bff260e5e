package daikin280

import (
	"fmt"
	"math"
	"strconv"
)

// Device status codes carried in the rsc field of multireq responses.
const (
	rscReadOK   = 2000
	rscWriteOK  = 2004
	rscRejected = 4000
)

// findValue locates the response entry whose fr matches the endpoint and
// walks its parameter tree by node name, returning the pv of the final
// node. A missing endpoint, missing path segment, or unexpected node shape
// yields (nil, nil); callers treat that as a normal absent field. Only a
// document without the top-level responses container is an error.
func findValue(doc map[string]interface{}, fr string, keys ...string) (interface{}, error) {
	entries, err := responseEntries(doc)
	if err != nil {
		return nil, err
	}

	var current interface{}
	for _, entry := range entries {
		if m, ok := entry.(map[string]interface{}); ok && m["fr"] == fr {
			current = m["pc"]
			break
		}
	}
	if current == nil {
		return nil, nil
	}

	for i, key := range keys {
		node := matchNode(current, key)
		if node == nil {
			return nil, nil
		}
		if i == len(keys)-1 {
			return node["pv"], nil
		}
		current = node["pch"]
		if current == nil {
			return nil, nil
		}
	}
	return nil, nil
}

// matchNode finds the node named pn, tolerating both a single object and a
// list of objects at any level of the tree.
func matchNode(v interface{}, pn string) map[string]interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if t["pn"] == pn {
			return t
		}
	case []interface{}:
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok && m["pn"] == pn {
				return m
			}
		}
	}
	return nil
}

func responseEntries(doc map[string]interface{}) ([]interface{}, error) {
	raw, ok := doc["responses"]
	if !ok {
		return nil, NewProtocolError("response has no responses container", nil)
	}
	entries, ok := raw.([]interface{})
	if !ok {
		return nil, NewProtocolError("responses container is not a list", nil)
	}
	return entries, nil
}

// validateResponse checks every rsc in the document. 2000 (read ack) and
// 2004 (write ack) pass; 4000 is a value rejection and comes back as a
// RejectionError so callers can branch on it; anything else is a hard
// device error carrying the offending endpoint and code.
func validateResponse(doc map[string]interface{}) error {
	entries, err := responseEntries(doc)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		rsc, ok := m["rsc"].(float64)
		if !ok {
			continue
		}
		code := int(rsc)
		endpoint, _ := m["fr"].(string)

		switch code {
		case rscReadOK, rscWriteOK:
		case rscRejected:
			return &RejectionError{Endpoint: endpoint, Code: code}
		default:
			return &StatusError{Endpoint: endpoint, Code: code}
		}
	}
	return nil
}

// hexToTemp decodes a temperature register. Most registers hold the value
// doubled for half-degree resolution (divisor 2); the indoor temperature is
// not doubled (divisor 1). The divisor is a property of the field, supplied
// by its probe, never guessed from the value. Longer registers carry the
// temperature in the leading two hex digits.
func hexToTemp(value string, divisor int) (float64, bool) {
	if len(value) < 2 || divisor <= 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(value[:2], 16, 64)
	if err != nil {
		return 0, false
	}
	return float64(v) / float64(divisor), true
}

// tempToHex encodes a setpoint as the doubled value in two hex digits.
func tempToHex(temperature float64) string {
	return fmt.Sprintf("%02x", int(math.Round(temperature*2)))
}

// quantizeTemp snaps a temperature to the half-degree grid the wire
// encoding can express. The value committed after a write is always the
// quantized one, since that is what the device was actually told.
func quantizeTemp(temperature float64) float64 {
	return math.Round(temperature*2) / 2
}

func hexToInt(value string) (int, bool) {
	v, err := strconv.ParseInt(value, 16, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
