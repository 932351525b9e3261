// FILE: lixenwraith/logship/label.go
package logship

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseLabels builds a LabelSet from a configuration string.
// A YAML/JSON mapping is used as-is when it decodes; otherwise the input is read as
// comma-separated key=value pairs. Malformed entries are dropped, never reported.
func ParseLabels(s string) LabelSet {
	s = strings.TrimSpace(s)
	if s == "" {
		return LabelSet{}
	}

	if labels, ok := parseStructuredLabels(s); ok {
		return labels
	}
	return parseFlatPairs(s)
}

// parseStructuredLabels decodes map syntax, ok is false on any decode failure
func parseStructuredLabels(s string) (labels LabelSet, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			labels, ok = nil, false
		}
	}()

	var raw map[string]string
	if err := yaml.Unmarshal([]byte(s), &raw); err != nil || raw == nil {
		return nil, false
	}

	labels = make(LabelSet, len(raw))
	for k, v := range raw {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		labels[k] = v
	}
	return labels, true
}

// parseFlatPairs reads "k=v,k=v", later duplicates win
func parseFlatPairs(s string) map[string]string {
	pairs := make(map[string]string)
	for _, entry := range strings.Split(s, ",") {
		key, value, ok := parseKeyValue(entry)
		if !ok || value == "" {
			continue
		}
		pairs[key] = value
	}
	return pairs
}

// buildLabelSet merges labels by precedence: tenant default, user labels, identity labels
func buildLabelSet(userLabels LabelSet, tenant, service, env string) LabelSet {
	labels := make(LabelSet, len(userLabels)+3)
	if tenant != "" {
		labels[LabelTenant] = tenant
	}
	for k, v := range userLabels {
		labels[k] = v
	}
	labels[LabelService] = service
	labels[LabelEnv] = env
	return labels
}
