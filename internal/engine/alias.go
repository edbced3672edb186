package engine

import (
	"encoding/json"
	"strings"
)

// toolPrefixes lists the common tool-name prefixes stripped to form the
// short alias (spec.md §4.5: "a short tool alias (strip common prefixes)").
var toolPrefixes = []string{"w3rt_", "w3rt."}

// conventionalSubstrings maps a substring found in a tool name to the
// conventional context alias it populates (spec.md §4.5, §9). Order matters:
// the first matching entry wins, so more specific substrings are listed
// before their supersets.
var conventionalSubstrings = []struct {
	substr string
	alias  string
}{
	{"quote", "quote"},
	{"build", "built"},
	{"simulate", "simulation"},
	{"broadcast", "submitted"},
	{"exec", "submitted"},
	{"send", "submitted"},
	{"confirm", "confirmed"},
}

// domainKeys maps a result key to the domain alias it is additionally
// surfaced under (spec.md §4.5: "profit → opportunity, prices → prices").
// This mapping is heuristic by design and documented as fragile in
// spec.md §9 (collision risk against stage-name bindings of the same key).
var domainKeys = map[string]string{
	"profit": "opportunity",
	"prices": "prices",
}

// storeAliases writes result into runCtx under every alias spec.md §4.5
// mandates: the stage name, a short tool alias, conventional substring
// aliases, and domain aliases drawn from the result's own keys.
func storeAliases(runCtx map[string]any, stageName, toolName string, result any) {
	runCtx[stageName] = result

	short := toolName
	for _, p := range toolPrefixes {
		if strings.HasPrefix(short, p) {
			short = strings.TrimPrefix(short, p)
			break
		}
	}
	if short != "" {
		runCtx[short] = result
	}

	for _, c := range conventionalSubstrings {
		if strings.Contains(toolName, c.substr) {
			runCtx[c.alias] = result
			break
		}
	}

	if m, ok := result.(map[string]any); ok {
		for key, alias := range domainKeys {
			if v, present := m[key]; present {
				runCtx[alias] = v
			}
		}
	}
}

func marshalFinished(ok bool, errMsg string) ([]byte, error) {
	payload := map[string]any{"ok": ok}
	if errMsg != "" {
		payload["error"] = errMsg
	}
	return json.Marshal(payload)
}
