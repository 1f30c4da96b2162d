package installer

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Intermediate keys collected by the wizard but never written to .env.
const (
	keyChannel = "_channel"
)

type InstallState struct {
	EnvVars map[string]string
}

func NewInstallState() *InstallState {
	return &InstallState{
		EnvVars: make(map[string]string),
	}
}

func (s *InstallState) Provider() string {
	return strings.ToLower(s.EnvVars["VRMENTOR_LLM_PROVIDER"])
}

// Finalize derives dependent values and drops intermediate keys.
func (s *InstallState) Finalize() {
	s.EnvVars["VRMENTOR_ENABLE_TELEGRAM"] = fmt.Sprint(s.EnvVars["TELEGRAM_TOKEN"] != "")
	s.EnvVars["VRMENTOR_ENABLE_CLI"] = fmt.Sprint(s.EnvVars[keyChannel] != "telegram")

	// The embeddings endpoint defaults to the chat key when both are OpenAI.
	if s.Provider() == "openai" && s.EnvVars["VRMENTOR_EMBEDDING_API_KEY"] == "" {
		s.EnvVars["VRMENTOR_EMBEDDING_API_KEY"] = s.EnvVars["OPENAI_API_KEY"]
	}

	for k, v := range s.EnvVars {
		if strings.HasPrefix(k, "_") || v == "" {
			delete(s.EnvVars, k)
		}
	}
}

// Render returns the .env content with keys in stable order.
func (s *InstallState) Render() string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(s.EnvVars)) {
		fmt.Fprintf(&b, "%s=%s\n", k, s.EnvVars[k])
	}
	return b.String()
}
