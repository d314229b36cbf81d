package utils

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"days":[]}`, `{"days":[]}`},
		{"fenced", "```json\n{\"days\": [1]}\n```", `{"days": [1]}`},
		{"prose around", `Sure! Here it is: {"a":"b}"} hope that helps {"c":1}`, `{"a":"b}"}`},
		{"array before object", `[1,2] then {"a":1}`, `{"a":1}`},
		{"trailing comma", `{"a":[1,2,],}`, `{"a":[1,2]}`},
		{"braces in prose first", `Considering {week 3} carefully, here is the plan: {"days":[{"date":"2024-03-04"}]}`, `{"days":[{"date":"2024-03-04"}]}`},
		{"unclosed brace first", `Note { the plan: {"a":1}`, `{"a":1}`},
		{"unicode kept", `{"title":"Café – Übung"}`, `{"title":"Café – Übung"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.input)
			if err != nil {
				t.Fatalf("ExtractJSONObject: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONObjectFailures(t *testing.T) {
	for _, input := range []string{"", "   ", "no json here", "[1,2,3]", `{"a": `} {
		if _, err := ExtractJSONObject(input); !errors.Is(err, ErrNoJSONFound) {
			t.Errorf("ExtractJSONObject(%q) err = %v, want ErrNoJSONFound", input, err)
		}
	}
}

func TestExtractJSONObjects(t *testing.T) {
	got := ExtractJSONObjects("First {draft} then {\"note\":\"x\"} and finally {\"days\":[{\"d\":1}],}")
	want := []string{`{"note":"x"}`, `{"days":[{"d":1}]}`}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("object %d = %q, want %q", i, got[i], want[i])
		}
	}

	if got := ExtractJSONObjects("no objects {here}"); len(got) != 0 {
		t.Errorf("got %q, want none", got)
	}
}

func TestExtractJSONTo(t *testing.T) {
	var out []int
	if err := ExtractJSONTo("result: [1, 2, 3]", &out); err != nil {
		t.Fatalf("ExtractJSONTo: %v", err)
	}
	if len(out) != 3 || out[2] != 3 {
		t.Errorf("out = %v", out)
	}
}
