package services

import (
	"testing"

	"github.com/quirra-app/quirra-api/model"
)

func TestPreferredProviderKey(t *testing.T) {
	openai := model.UserProviderKey{Provider: "openai"}
	openrouter := model.UserProviderKey{Provider: "openrouter"}
	custom := model.UserProviderKey{Provider: "somevendor"}

	cases := []struct {
		name string
		keys []model.UserProviderKey
		want string
	}{
		{"none stored", nil, ""},
		{"single key", []model.UserProviderKey{openai}, "openai"},
		{"openrouter wins", []model.UserProviderKey{openai, openrouter}, "openrouter"},
		{"order independent", []model.UserProviderKey{openrouter, openai}, "openrouter"},
		{"unknown provider falls back to first", []model.UserProviderKey{custom}, "somevendor"},
		{"known beats unknown", []model.UserProviderKey{custom, openai}, "openai"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := preferredProviderKey(tc.keys)
			if tc.want == "" {
				if got != nil {
					t.Fatalf("preferredProviderKey = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.Provider != tc.want {
				t.Errorf("preferredProviderKey = %+v, want provider %q", got, tc.want)
			}
		})
	}
}
