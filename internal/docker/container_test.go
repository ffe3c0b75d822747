package docker

import (
	"reflect"
	"testing"
)

func TestParseDockerLabels(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "multiple labels",
			input: "project=demo,app=web,color=blue,active=true",
			want:  map[string]string{"project": "demo", "app": "web", "color": "blue", "active": "true"},
		},
		{
			name:  "single label",
			input: "project=demo",
			want:  map[string]string{"project": "demo"},
		},
		{
			name:  "value containing equals sign",
			input: "release=a1b2c3=extra",
			want:  map[string]string{"release": "a1b2c3=extra"},
		},
		{
			name:  "empty string",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "malformed pair without equals is skipped",
			input: "project=demo,malformed,app=web",
			want:  map[string]string{"project": "demo", "app": "web"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDockerLabels(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("unexpected labels: want %v got %v", tt.want, got)
			}
		})
	}
}

func TestParseDockerLabels_ActiveColorLookup(t *testing.T) {
	labels := parseDockerLabels("project=demo,app=web,color=green,active=true,replica=1")

	if labels["color"] != "green" {
		t.Fatalf("expected color green, got %q", labels["color"])
	}
	if labels["active"] != "true" {
		t.Fatalf("expected active true, got %q", labels["active"])
	}
}
